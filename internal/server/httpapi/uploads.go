package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/equipview/internal/common"
	"github.com/dmitrijs2005/equipview/internal/equipment"
	"github.com/dmitrijs2005/equipview/internal/server/models"
	"github.com/dmitrijs2005/equipview/internal/server/report"
	"github.com/go-chi/chi/v5"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temporary files.
const multipartMemory = 1 << 20

type uploadMetaJSON struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func metaJSON(m models.UploadMeta) uploadMetaJSON {
	return uploadMetaJSON{ID: m.ID, Filename: m.Filename, UploadedAt: m.UploadedAt}
}

type uploadResponse struct {
	Message    string                 `json:"message"`
	UploadID   string                 `json:"upload_id"`
	Filename   string                 `json:"filename"`
	UploadedAt time.Time              `json:"uploaded_at"`
	Summary    equipment.Summary      `json:"summary"`
	Warnings   []equipment.RowWarning `json:"warnings"`
}

type dataResponse struct {
	Upload  uploadMetaJSON    `json:"upload"`
	Summary equipment.Summary `json:"summary"`
	Data    []equipment.Row   `json:"data"`
}

// POST /api/upload
// Body: multipart form with a "file" field, or a raw text/csv body with
// ?filename=.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) error {
	acc, err := accountID(r)
	if err != nil {
		return err
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	filename, data, err := readUpload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: file exceeds %d bytes", common.ErrInvalidInput, tooLarge.Limit)
		}
		return err
	}

	res, err := s.uploads.Upload(r.Context(), acc, filename, data)
	if err != nil {
		return err
	}

	u := res.Upload
	writeJSON(w, http.StatusCreated, uploadResponse{
		Message:    "File uploaded successfully",
		UploadID:   u.ID,
		Filename:   u.Filename,
		UploadedAt: u.UploadedAt,
		Summary:    u.Summary,
		Warnings:   res.Warnings,
	})
	return nil
}

func readUpload(r *http.Request) (string, []byte, error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return "", nil, err
		}
		if len(data) == 0 {
			return "", nil, fmt.Errorf("%w: no file provided", common.ErrInvalidInput)
		}
		return r.URL.Query().Get("filename"), data, nil
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, err
		}
		return "", nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	defer r.MultipartForm.RemoveAll()

	f, hdr, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil, fmt.Errorf("%w: no file provided", common.ErrInvalidInput)
	}
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, err
	}
	return hdr.Filename, data, nil
}

// GET /api/history
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) error {
	acc, err := accountID(r)
	if err != nil {
		return err
	}

	list, err := s.uploads.History(r.Context(), acc)
	if err != nil {
		return err
	}

	out := make([]uploadMetaJSON, 0, len(list))
	for _, m := range list {
		out = append(out, metaJSON(m))
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

// GET /api/data/{id}
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) error {
	acc, err := accountID(r)
	if err != nil {
		return err
	}

	u, err := s.uploads.Detail(r.Context(), acc, chi.URLParam(r, "id"))
	if err != nil {
		return err
	}

	rows := u.Rows
	if rows == nil {
		rows = []equipment.Row{}
	}
	writeJSON(w, http.StatusOK, dataResponse{
		Upload:  metaJSON(u.UploadMeta),
		Summary: u.Summary,
		Data:    rows,
	})
	return nil
}

// GET /api/report/{id}?format=pdf|txt
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) error {
	acc, err := accountID(r)
	if err != nil {
		return err
	}
	f, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		return err
	}

	doc, err := s.uploads.Report(r.Context(), acc, chi.URLParam(r, "id"), f)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", attachment(doc.Filename))
	_, err = w.Write(doc.Body)
	return err
}

// GET /api/source/{id}
func (s *Server) handleSource(w http.ResponseWriter, r *http.Request) error {
	acc, err := accountID(r)
	if err != nil {
		return err
	}

	src, err := s.uploads.Source(r.Context(), acc, chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	if src.URL != "" {
		http.Redirect(w, r, src.URL, http.StatusFound)
		return nil
	}
	defer src.Body.Close()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", attachment(src.Filename))
	_, err = io.Copy(w, src.Body)
	return err
}

// attachment builds a Content-Disposition value with a quoted filename.
func attachment(filename string) string {
	clean := strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, filename)
	return `attachment; filename="` + quoteEscaper.Replace(clean) + `"`
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
