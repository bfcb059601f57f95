package web

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/hpungsan/pantry/internal/errors"
)

// maxBodySize bounds request bodies.
const maxBodySize = 4 << 20

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderError writes err as {"error": {...}}. Internal errors are logged
// and replaced with a generic message.
func (h *Handlers) renderError(w http.ResponseWriter, r *http.Request, err error) {
	pe := errors.As(err)
	if pe == nil {
		pe = errors.NewInternal(err)
	}

	errorObj := map[string]any{
		"code":    string(pe.Code),
		"message": pe.Message,
		"status":  pe.Status,
	}
	if pe.Code == errors.ErrInternal {
		h.log.Error("internal error",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		errorObj["message"] = "an internal error occurred"
	} else if pe.Details != nil {
		errorObj["details"] = pe.Details
	}

	renderJSON(w, pe.Status, map[string]any{"error": errorObj})
}

// decodeBody reads a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.As(err, &tooLarge):
			return errors.NewInvalidRequest(fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		case stderrors.Is(err, io.EOF):
			return errors.NewInvalidRequest("request body is required")
		default:
			return errors.NewInvalidRequest(fmt.Sprintf("invalid JSON body: %v", err))
		}
	}
	if dec.More() {
		return errors.NewInvalidRequest("request body must contain a single JSON value")
	}
	return nil
}
