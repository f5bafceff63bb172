package server

import (
	"encoding/json"
	"errors"
	"net/http"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeJSON      = "application/json"
	internalErrorMessage = "An error occurred. Please try again."
	maxRequestBodyBytes  = 1 << 20
)

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("failed to encode response")
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

// errorStatuses maps domain errors to the status returned to the client.
// Order matters: the first match wins.
var errorStatuses = []struct {
	err    error
	status int
}{
	{autherrors.ErrSessionLimitExceeded, http.StatusNotAcceptable},
	{autherrors.ErrTokenExpired, http.StatusNotAcceptable},
	{autherrors.ErrAuthentication, http.StatusUnauthorized},
	{autherrors.ErrInvalidToken, http.StatusUnauthorized},
	{autherrors.ErrInvalidSession, http.StatusUnauthorized},
	{autherrors.ErrSessionNotFound, http.StatusNotFound},
	{autherrors.ErrUserExists, http.StatusConflict},
	{autherrors.ErrInvalidRequest, http.StatusBadRequest},
}

// writeError maps err to a status code. Unmapped errors are logged and hidden behind a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			writeMessage(w, e.status, e.err.Error())
			return
		}
	}
	log.Err(err).Str("path", r.URL.Path).Msg("unhandled error")
	writeMessage(w, http.StatusInternalServerError, internalErrorMessage)
}

// decodeJSON reads a JSON request body into dst. Failures wrap errors.ErrInvalidRequest.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return autherrors.Wrapf(autherrors.ErrInvalidRequest, "malformed JSON body (%v)", err)
	}
	return nil
}
