package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// ErrorResponse is the envelope returned for every non-2xx response.
type ErrorResponse struct {
	StatusCode int          `json:"statusCode"`
	Message    string       `json:"message"`
	ErrorCode  string       `json:"error"`
	Timestamp  time.Time    `json:"timestamp"`
	Path       string       `json:"path"`
	Details    []FieldError `json:"details,omitempty"`
}

// Fail writes err as an error envelope and records it on the gin context
// so the audit middleware can log it.
func Fail(c *gin.Context, err error) {
	appErr := translate(err)
	_ = c.Error(appErr)
	c.AbortWithStatusJSON(appErr.Status, ErrorResponse{
		StatusCode: appErr.Status,
		Message:    appErr.Message,
		ErrorCode:  appErr.Code,
		Timestamp:  time.Now().UTC(),
		Path:       c.Request.URL.Path,
		Details:    appErr.Details,
	})
}

// BindJSON binds the request body and converts validator failures into a
// VALIDATION envelope with per-field details.
func BindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make([]FieldError, 0, len(verrs))
			for _, fe := range verrs {
				details = append(details, FieldError{
					Field:   strings.ToLower(fe.Field()),
					Message: validationMessage(fe),
					Value:   fe.Value(),
				})
			}
			Fail(c, Validation("request validation failed", details...))
			return false
		}
		Fail(c, Validation("invalid request body"))
		return false
	}
	return true
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed validation on " + fe.Tag()
	}
}

// translate maps store errors onto the taxonomy before enveloping.
func translate(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound("resource")
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return Conflict("duplicate resource")
	}
	return Internal(err)
}

// OK writes a 200 with the given body.
func OK(c *gin.Context, body interface{}) {
	c.JSON(http.StatusOK, body)
}

// Created writes a 201 with the given body.
func Created(c *gin.Context, body interface{}) {
	c.JSON(http.StatusCreated, body)
}
