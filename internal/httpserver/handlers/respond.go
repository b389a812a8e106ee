package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/MrSnakeDoc/bookmarkpack/internal/domain"
	"github.com/MrSnakeDoc/bookmarkpack/internal/logger"
)

const (
	MsgInternal      = "Internal server error."
	MsgMalformedJSON = "Malformed JSON body."
	MsgBodyTooLarge  = "Request body is too large."

	// maxJSONBody bounds JSON request bodies. Imports have their own limit.
	maxJSONBody = 5 << 20
)

type errorResponse struct {
	Message string              `json:"message"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeOK ends a request that has nothing to return.
func writeOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
}

// writeError maps err to a status code and a {message, errors} body.
// Errors that are not domain errors are logged and hidden behind a 500.
func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		log.Error("request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: MsgInternal})
		return
	}

	status := statusOf(de.Kind)
	if len(de.Details) == 0 {
		writeJSON(w, status, errorResponse{Message: de.Message, Errors: de.Errors})
		return
	}

	body := make(map[string]any, len(de.Details)+2)
	for k, v := range de.Details {
		body[k] = v
	}
	body["message"] = de.Message
	if len(de.Errors) > 0 {
		body["errors"] = de.Errors
	}
	writeJSON(w, status, body)
}

func statusOf(k domain.Kind) int {
	switch k {
	case domain.KindInvalid:
		return http.StatusUnprocessableEntity
	case domain.KindBadRequest:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// readBody reads a bounded JSON body.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, domain.BadRequest(MsgBodyTooLarge)
		}
		return nil, domain.BadRequest(MsgMalformedJSON)
	}
	return data, nil
}

// decodeJSON fills v from the request body. Syntax errors are 400, values of
// the wrong type are reported as field errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	data, err := readBody(w, r)
	if err != nil {
		return err
	}
	return unmarshal(data, v)
}

func unmarshal(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return domain.Invalid(domain.FieldError{
			Field:   typeErr.Field,
			Value:   typeErr.Value,
			Message: "The " + typeErr.Field + " field has the wrong type.",
		})
	}
	return domain.BadRequest(MsgMalformedJSON)
}
