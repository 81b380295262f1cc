package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"ladder-quiz-service/internal/domain"
)

var (
	errBadRequest  = errors.New("invalid request body")
	errMissingUser = errors.New("missing X-User-ID header")
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	GameID  string `json:"gameId,omitempty"`
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, errMissingUser):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrActiveGameExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrTimeLimitExceeded),
		errors.Is(err, domain.ErrUnknownHelp),
		errors.Is(err, domain.ErrOutOfRange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInsufficientQuestions),
		errors.Is(err, domain.ErrQuestionNotFound):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func newErrorResponse(err error) (int, errorResponse) {
	status := statusFor(err)
	resp := errorResponse{Error: http.StatusText(status), Message: err.Error()}
	var active *domain.ActiveGameError
	if errors.As(err, &active) {
		resp.GameID = active.GameID
	}
	if status == http.StatusInternalServerError {
		resp.Message = ""
	}
	return status, resp
}

// ErrorHandler renders errors attached with c.Error as JSON and recovers panics.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic recovered: %v", rec)
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{
					Error: http.StatusText(http.StatusInternalServerError),
				})
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status, resp := newErrorResponse(err)
		if status == http.StatusInternalServerError {
			log.Printf("request error: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		}
		c.JSON(status, resp)
	}
}
