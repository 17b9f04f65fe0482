package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeNotFound            Code = "NOT_FOUND"
	CodeRejected            Code = "REJECTED"
	CodeInvalidProduct      Code = "INVALID_PRODUCT"
	CodeInvalidOptions      Code = "INVALID_OPTIONS"
	CodeInvalidDeliveryArea Code = "INVALID_DELIVERY_AREA"
	CodeInvalidPayment      Code = "INVALID_PAYMENT"
	CodeConflict            Code = "CONFLICT"
	CodeTransient           Code = "TRANSIENT"
)

// Error carries the business error taxonomy across package boundaries so
// handlers can map failures to HTTP statuses without string matching.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the taxonomy code of err, or "" for plain errors.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// HTTPStatus maps an error to the status its handler should answer with.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRejected:
		return http.StatusUnprocessableEntity
	case CodeInvalidProduct, CodeInvalidOptions, CodeInvalidDeliveryArea, CodeInvalidPayment:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	case CodeTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
