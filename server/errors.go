package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/go-control-plane/internal/errors"
	"github.com/rs/zerolog/log"
)

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

type errorEnvelope struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, errorEnvelope{Error: errorDetail{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func readJSON(r *http.Request, v interface{}) error {
	lr := io.LimitReader(r.Body, maxBodySize)
	return json.NewDecoder(lr).Decode(v)
}

// decode reads and validates a request body, writing a 400 and returning
// false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := readJSON(r, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "email":
			msgs = append(msgs, fe.Field()+" must be a valid email address")
		default:
			msgs = append(msgs, fe.Field()+" failed "+fe.Tag()+" validation")
		}
	}
	return strings.Join(msgs, "; ")
}

// writeServiceError maps the error taxonomy onto HTTP responses. Anything
// unrecognised is logged and reported without detail.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errors.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, errors.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "unauthorized", errors.ErrInvalidCredentials.Error())
	case errors.Is(err, errors.ErrAccountDeactivated):
		writeError(w, http.StatusUnauthorized, "unauthorized", errors.ErrAccountDeactivated.Error())
	case errors.Is(err, errors.ErrInvalidOrExpiredSession):
		writeError(w, http.StatusUnauthorized, "unauthorized", errors.ErrInvalidOrExpiredSession.Error())
	case errors.Is(err, errors.ErrInvalidTwoFactorCode):
		writeError(w, http.StatusUnauthorized, "unauthorized", errors.ErrInvalidTwoFactorCode.Error())
	case errors.Is(err, errors.ErrSetupNotInitiated), errors.Is(err, errors.ErrNotEnabled):
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, errors.ErrInvalidLicense):
		writeError(w, http.StatusBadRequest, "invalid_license", err.Error())
	case errors.Is(err, errors.ErrInvalidTier):
		writeError(w, http.StatusBadRequest, "invalid_tier", err.Error())
	case errors.Is(err, errors.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "forbidden")
	case errors.Is(err, errors.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, errors.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, errors.ErrConfiguration):
		log.Error().Err(err).Msg("configuration error")
		writeError(w, http.StatusServiceUnavailable, "not_configured", "licensing is not configured")
	default:
		log.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
