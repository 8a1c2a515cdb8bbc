// Package netx has HTTP helpers for the CLI client.
package netx

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

const maxErrorBody = 4 << 10

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed: %s", e.Status)
	}
	return fmt.Sprintf("request failed: %s; %s", e.Status, e.Message)
}

// CheckResponse returns nil for 2xx responses. Otherwise it reads a bounded
// part of the body, preferring the "error" field of a JSON body, and returns
// a *StatusError.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(b))

	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &body) == nil && body.Error != "" {
		msg = body.Error
	}

	return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Message: msg}
}

// AttachmentFilename returns the base file name from a Content-Disposition
// header, or def when the header has none.
func AttachmentFilename(header, def string) string {
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return def
	}
	name := filepath.Base(params["filename"])
	if name == "." || name == "/" || name == "" {
		return def
	}
	return name
}
