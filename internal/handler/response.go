package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clinicbook/booking-api/pkg/apperror"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// WriteError maps application error kinds onto HTTP statuses and writes the
// error envelope. Unclassified errors are reported as 500 without leaking the
// underlying cause.
func WriteError(c *gin.Context, err error) {
	var ae *apperror.AppError
	if !errors.As(err, &ae) {
		c.JSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
		return
	}

	status := http.StatusInternalServerError
	switch ae.Kind {
	case apperror.KindValidation:
		status = http.StatusBadRequest
	case apperror.KindNotFound:
		status = http.StatusNotFound
	case apperror.KindAuthorization:
		status = http.StatusForbidden
	case apperror.KindDependency:
		status = http.StatusUnprocessableEntity
	case apperror.KindStorage:
		status = http.StatusInternalServerError
	}

	c.JSON(status, NewErrorResponse(ae.Message))
}
