package utils

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"shiprate-backend/internal/domain"

	"github.com/goccy/go-json"
)

// MaxBodyBytes caps request bodies read by DecodeJSON.
const MaxBodyBytes = 1 << 20

func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// WriteSuccess writes {success: true, data, meta}.
func WriteSuccess(w http.ResponseWriter, status int, data, meta interface{}) {
	WriteJSON(w, status, domain.Response{Success: true, Data: data, Meta: meta})
}

// WriteError writes {success: false, error: {code, message}}.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, domain.Response{Error: &domain.ErrorBody{Code: code, Message: message}})
}

// DecodeJSON reads one JSON document from the request body into v.
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", domain.ErrInvalidInput)
		}
		return fmt.Errorf("%w: malformed JSON: %v", domain.ErrInvalidInput, err)
	}
	return nil
}
