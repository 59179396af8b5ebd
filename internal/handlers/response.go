package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hubfolio/hubfolio-backend/internal/apierr"
	"github.com/hubfolio/hubfolio-backend/internal/services"
	"github.com/hubfolio/hubfolio-backend/internal/types"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps the service error taxonomy onto HTTP statuses so
// every handler reports failures the same way.
func RespondServiceError(c *gin.Context, err error) {
	var (
		validationErr *types.ValidationError
		unknownUser   *services.UnknownUserError
		modelGone     *services.ModelUnavailableError
		persistence   *services.PersistenceError
		noVersion     *services.NoSuchVersionError
		apiErr        *apierr.Error
	)
	switch {
	case errors.As(err, &validationErr):
		RespondError(c, http.StatusBadRequest, "validation_error", err)
	case errors.As(err, &unknownUser):
		RespondError(c, http.StatusNotFound, "user_not_found", err)
	case errors.As(err, &modelGone):
		RespondError(c, http.StatusServiceUnavailable, "model_unavailable", err)
	case errors.As(err, &noVersion):
		RespondError(c, http.StatusNotFound, "no_such_version", err)
	case errors.As(err, &persistence):
		RespondError(c, http.StatusInternalServerError, "persistence_error", err)
	case errors.As(err, &apiErr):
		RespondError(c, apiErr.Status, apiErr.Code, apiErr.Err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}
