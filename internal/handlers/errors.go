package handlers

import (
	"errors"
	"net/http"

	"matchday/internal/services"
	"matchday/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Error           string            `json:"error"`
	Code            string            `json:"code"`
	Fields          map[string]string `json:"fields,omitempty"`
	BlockingMatches []matchResponse   `json:"blocking_matches,omitempty"`
}

// respondError maps service errors onto status codes. Anything unknown is
// a 500 with a generic message; the cause goes to the log only.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var (
		fieldErr   *validation.FieldError
		matchErr   *validation.MatchError
		predErr    *validation.PredictionError
		blockedErr *services.BlockedDelete
	)

	switch {
	case errors.As(err, &blockedErr):
		blocking := make([]matchResponse, len(blockedErr.BlockingMatches))
		for i := range blockedErr.BlockingMatches {
			blocking[i] = newMatchResponse(&blockedErr.BlockingMatches[i], nil)
		}
		c.JSON(http.StatusConflict, errorResponse{
			Error:           "Team cannot be deleted while matches reference it",
			Code:            "referential_block",
			BlockingMatches: blocking,
		})
	case errors.As(err, &predErr):
		status := http.StatusBadRequest
		if predErr.Reason == validation.DuplicateForUserAndMatch {
			status = http.StatusConflict
		}
		c.JSON(status, errorResponse{Error: predErr.Error(), Code: string(predErr.Reason), Fields: fieldMap(predErr.Field, predErr.Error())})
	case errors.As(err, &matchErr):
		c.JSON(http.StatusBadRequest, errorResponse{Error: matchErr.Error(), Code: string(matchErr.Reason), Fields: fieldMap(matchErr.Field, matchErr.Error())})
	case errors.As(err, &fieldErr):
		status, code := http.StatusBadRequest, "invalid"
		if fieldErr.Reason == validation.Duplicate {
			status, code = http.StatusConflict, string(validation.Duplicate)
		}
		c.JSON(status, errorResponse{Error: fieldErr.Message, Code: code, Fields: fieldMap(fieldErr.Field, fieldErr.Message)})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "Not found", Code: "not_found"})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error(), Code: "invalid_credentials"})
	case errors.Is(err, services.ErrLogoTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error(), Code: "too_large", Fields: fieldMap("logo", err.Error())})
	case errors.Is(err, services.ErrLogoType):
		c.JSON(http.StatusUnsupportedMediaType, errorResponse{Error: err.Error(), Code: "unsupported_media_type", Fields: fieldMap("logo", err.Error())})
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Internal server error", Code: "internal"})
	}
}

// badRequest replies to malformed input that never reached a service.
func badRequest(c *gin.Context, field, message string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: message, Code: "invalid", Fields: fieldMap(field, message)})
}

func fieldMap(field, message string) map[string]string {
	if field == "" {
		return nil
	}
	return map[string]string{field: message}
}
