package response

import (
	"errors"
	"log"
	"net/http"

	"courtbooking/internal/domain"

	"github.com/gin-gonic/gin"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func CustomError(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// FromError maps the domain error taxonomy onto the JSON envelope. Anything
// outside the taxonomy is logged and reported as an internal error.
func FromError(c *gin.Context, err error) {
	var (
		validationErr *domain.ValidationError
		conflictErr   *domain.ConflictError
		notFoundErr   *domain.NotFoundError
		authErr       *domain.AuthorizationError
	)
	switch {
	case errors.As(err, &conflictErr):
		details := gin.H{"kind": conflictErr.Kind, "date": conflictErr.Date.Format(domain.DateLayout)}
		if conflictErr.UserID != 0 {
			details["user_id"] = conflictErr.UserID
		}
		if conflictErr.CourtID != 0 {
			details["court_id"] = conflictErr.CourtID
			details["window"] = conflictErr.Window
		}
		if conflictErr.BookingID != 0 {
			details["booking_id"] = conflictErr.BookingID
		}
		ErrorWithDetails(c, http.StatusConflict, "CONFLICT", conflictErr.Error(), details)
	case errors.As(err, &validationErr):
		ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", validationErr.Message, gin.H{"field": validationErr.Field})
	case errors.As(err, &notFoundErr):
		CustomError(c, http.StatusNotFound, "NOT_FOUND", notFoundErr.Error())
	case errors.As(err, &authErr):
		CustomError(c, http.StatusForbidden, "FORBIDDEN", authErr.Error())
	case errors.Is(err, domain.ErrValidation):
		CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, domain.ErrConflict):
		CustomError(c, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		CustomError(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		CustomError(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	default:
		_ = c.Error(err)
		log.Printf("internal_error path=%s error=%q", c.FullPath(), err.Error())
		CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
	}
}
