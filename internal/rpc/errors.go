package rpc

import (
	"errors"
	"net/http"

	"taeu.kr/kirosumi/internal/platform/apperr"
	"taeu.kr/kirosumi/internal/platform/database"
)

type Code string

const (
	CodeParseError         Code = "PARSE_ERROR"
	CodeBadRequest         Code = "BAD_REQUEST"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeNotFound           Code = "NOT_FOUND"
	CodeMethodNotSupported Code = "METHOD_NOT_SUPPORTED"
	CodeConflict           Code = "CONFLICT"
	CodeInternal           Code = "INTERNAL_SERVER_ERROR"
)

// HTTPStatus는 tRPC 규약의 HTTP 상태 코드입니다
func (c Code) HTTPStatus() int {
	switch c {
	case CodeParseError, CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeMethodNotSupported:
		return http.StatusMethodNotAllowed
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// JSONRPCCode는 에러 envelope의 숫자 코드입니다
func (c Code) JSONRPCCode() int {
	switch c {
	case CodeParseError:
		return -32700
	case CodeBadRequest:
		return -32600
	case CodeUnauthorized:
		return -32001
	case CodeForbidden:
		return -32003
	case CodeNotFound:
		return -32004
	case CodeMethodNotSupported:
		return -32005
	case CodeConflict:
		return -32009
	default:
		return -32603
	}
}

type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// FromError는 서비스/DB 에러를 rpc.Error로 변환합니다. 분류되지 않으면 fallback 메시지의 INTERNAL_SERVER_ERROR.
func FromError(err error, fallback string) *Error {
	if err == nil {
		return nil
	}

	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return &Error{Code: CodeNotFound, Message: err.Error(), Cause: err}
	case errors.Is(err, apperr.ErrValidation):
		return &Error{Code: CodeBadRequest, Message: err.Error(), Cause: err}
	case errors.Is(err, apperr.ErrConflict):
		return &Error{Code: CodeConflict, Message: err.Error(), Cause: err}
	case errors.Is(err, apperr.ErrForbidden):
		return &Error{Code: CodeForbidden, Message: err.Error(), Cause: err}
	}

	switch database.Classify(err) {
	case database.ViolationUnique:
		message := database.Detail(err)
		if message == "" {
			message = "Duplicate value violates unique constraint"
		}
		return &Error{Code: CodeConflict, Message: message, Cause: err}
	case database.ViolationForeignKey:
		return &Error{Code: CodeBadRequest, Message: "Invalid reference. Related record does not exist.", Cause: err}
	case database.ViolationNotNull:
		return &Error{Code: CodeBadRequest, Message: "Missing required field", Cause: err}
	case database.ViolationCheck:
		return &Error{Code: CodeBadRequest, Message: "Value does not satisfy database constraints", Cause: err}
	case database.ViolationRange:
		return &Error{Code: CodeBadRequest, Message: "Numeric value out of range", Cause: err}
	}

	return &Error{Code: CodeInternal, Message: fallback, Cause: err}
}
