package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jwalitptl/clinical-records/pkg/errors"
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

// RespondError writes err with the status its code maps to. Internal
// details are kept out of the body.
func RespondError(c *gin.Context, err error) {
	code := apperrors.CodeOf(err)
	message := "internal server error"

	var appErr *apperrors.AppError
	if code != apperrors.ErrInternal && errors.As(err, &appErr) {
		message = appErr.Message
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(code.HTTPStatus(), NewErrorResponse(message))
}
