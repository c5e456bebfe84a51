package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dkurilov/boardpass/internal/common"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps sentinel errors onto HTTP statuses and sends the
// user-readable part of the message.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrChallengeMismatch):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, common.ErrorNotFound):
		status = http.StatusNotFound
	}
	writeJSON(w, status, errorBody{Error: userMessage(err)})
}

// userMessage strips the sentinel prefix so the client surfaces "invalid
// credentials" rather than "unauthorized: invalid credentials".
func userMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{
		common.ErrorValidation,
		common.ErrorUnauthorized,
		common.ErrorNotFound,
		common.ErrChallengeMismatch,
	} {
		if prefix := sentinel.Error() + ": "; strings.HasPrefix(msg, prefix) {
			return strings.TrimPrefix(msg, prefix)
		}
	}
	return msg
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return common.ErrorValidation
	}
	return nil
}
