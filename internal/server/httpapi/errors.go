package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/equipview/internal/common"
	"github.com/dmitrijs2005/equipview/internal/equipment"
	"github.com/dmitrijs2005/equipview/internal/logging"
)

type errorBody struct {
	Error string `json:"error"`
}

// writeError is the single place errors become status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var schema *equipment.SchemaError

	switch {
	case errors.As(err, &schema):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: schema.Error()})
	case errors.Is(err, common.ErrUnauthorized):
		w.Header().Set("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", common.BasicAuthRealm))
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "authentication required"})
	case errors.Is(err, common.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, common.ErrInvalidInput),
		errors.Is(err, equipment.ErrMalformedCSV),
		errors.Is(err, common.ErrIncorrectPassword):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, common.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		logging.FromContext(r.Context(), s.logger).Error(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}

// writeJSON marshals v before committing the status, so a value that cannot
// be encoded turns into a 500 instead of a success with an empty body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorBody{Error: "internal server error"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
