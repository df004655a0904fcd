package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"storefront-be/internal/apperr"
	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// ErrorBody is the only error shape the API emits.
type ErrorBody struct {
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L().Warn("failed to encode response", zap.Error(err))
	}
}

func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorBody{Message: message})
}

// WriteError maps err onto its HTTP status and a {message} body. Internal
// errors are logged and replaced by a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)

	log := logger.FromCtx(r.Context())
	if kind == apperr.KindInternal {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	} else {
		log.Debug("request rejected",
			zap.String("kind", kind.String()),
			zap.Int("status", status),
			zap.Error(err),
		)
	}

	WriteMessage(w, status, apperr.Message(err))
}

// DecodeJSON reads a bounded JSON body into v.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return apperr.Validation("request body is required")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is required")
		}
		return apperr.Wrap(apperr.KindValidation, "invalid request body", err)
	}
	return nil
}
