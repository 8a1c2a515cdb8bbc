package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/equipview/internal/netx"
)

type Client interface {
	SetCredentials(username, password string)
	Ping(ctx context.Context) error
	Upload(ctx context.Context, filename string, data []byte) (*UploadResult, error)
	History(ctx context.Context) ([]UploadMeta, error)
	Data(ctx context.Context, id string) (*UploadData, error)
	Report(ctx context.Context, id, format string) (*Download, error)
	Source(ctx context.Context, id string) (*Download, error)
	Profile(ctx context.Context) (*Profile, error)
	UpdateProfile(ctx context.Context, u ProfileUpdate) (*Profile, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
}

// HTTPClient implements Client. Redirects (presigned source downloads) are
// followed without forwarding the credentials.
type HTTPClient struct {
	base     *url.URL
	http     *http.Client
	username string
	password string
}

func NewHTTPClient(serverURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("bad server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("bad server url %q: scheme must be http or https", serverURL)
	}
	return &HTTPClient{base: u, http: &http.Client{Timeout: timeout}}, nil
}

func (c *HTTPClient) SetCredentials(username, password string) {
	c.username, c.password = username, password
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.base.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	return req, nil
}

// do sends req and maps transport failures and error statuses to the
// package errors. The caller closes the body of a successful response.
func (c *HTTPClient) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := netx.CheckResponse(resp); err != nil {
		resp.Body.Close()
		var se *netx.StatusError
		if errors.As(err, &se) {
			switch se.StatusCode {
			case http.StatusUnauthorized:
				return nil, ErrUnauthorized
			case http.StatusNotFound:
				return nil, ErrNotFound
			}
		}
		return nil, err
	}
	return resp, nil
}

func (c *HTTPClient) doJSON(req *http.Request, out any) error {
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, nil)
}

// Upload sends data as the "file" field of a multipart form.
func (c *HTTPClient) Upload(ctx context.Context, filename string, data []byte) (*UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload", nil, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	res := &UploadResult{}
	if err := c.doJSON(req, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *HTTPClient) History(ctx context.Context) ([]UploadMeta, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/history", nil, nil)
	if err != nil {
		return nil, err
	}
	var out []UploadMeta
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Data(ctx context.Context, id string) (*UploadData, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/data/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	out := &UploadData{}
	if err := c.doJSON(req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Report(ctx context.Context, id, format string) (*Download, error) {
	q := url.Values{}
	if format == "" {
		format = "pdf"
	}
	q.Set("format", format)
	req, err := c.newRequest(ctx, http.MethodGet, "/api/report/"+url.PathEscape(id), q, nil)
	if err != nil {
		return nil, err
	}
	return c.download(req, "report_"+id+"."+format)
}

func (c *HTTPClient) Source(ctx context.Context, id string) (*Download, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/source/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	return c.download(req, id+".csv")
}

func (c *HTTPClient) download(req *http.Request, def string) (*Download, error) {
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read download: %w", err)
	}
	return &Download{
		Filename: netx.AttachmentFilename(resp.Header.Get("Content-Disposition"), def),
		Body:     body,
	}, nil
}

func (c *HTTPClient) Profile(ctx context.Context) (*Profile, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/user/details", nil, nil)
	if err != nil {
		return nil, err
	}
	out := &Profile{}
	if err := c.doJSON(req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, u ProfileUpdate) (*Profile, error) {
	req, err := c.jsonRequest(ctx, http.MethodPut, "/api/user/details", u)
	if err != nil {
		return nil, err
	}
	out := &Profile{}
	if err := c.doJSON(req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ChangePassword updates the password and, on success, switches the stored
// credentials to the new one.
func (c *HTTPClient) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	req, err := c.jsonRequest(ctx, http.MethodPost, "/api/user/password", map[string]string{
		"old_password": oldPassword,
		"new_password": newPassword,
	})
	if err != nil {
		return err
	}
	if err := c.doJSON(req, nil); err != nil {
		return err
	}
	c.password = newPassword
	return nil
}

func (c *HTTPClient) jsonRequest(ctx context.Context, method, path string, v any) (*http.Request, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, method, path, nil, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}
