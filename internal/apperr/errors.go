package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误类别，每个类别对应一个 HTTP 状态码
type Kind int

const (
	KindValidation Kind = iota + 1
	KindDuplicate
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindTooManyRequests
	KindUpstream
)

// HTTPStatus 返回类别对应的 HTTP 状态码
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindDuplicate:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindDuplicate:
		return "DuplicateResource"
	case KindUnauthorized:
		return "Unauthorized"
	case KindForbidden:
		return "Forbidden"
	case KindNotFound:
		return "NotFound"
	case KindTooManyRequests:
		return "TooManyRequests"
	default:
		return "UpstreamFailure"
	}
}

// Error 业务错误
// Code 用于 errors.Is 比较，Message 直接返回给调用方
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

// New 创建业务错误
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Upstream 包装存储或外部服务的失败
func Upstream(message string, err error) *Error {
	return &Error{Kind: KindUpstream, Code: "UpstreamFailure", Message: message, Err: err}
}

// Validation 创建输入校验错误
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Code: "ValidationError", Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 按 Code 匹配，忽略 Message 与包装的原因
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithMessage 返回替换了提示信息的副本
func (e *Error) WithMessage(message string) *Error {
	cp := *e
	cp.Message = message
	return &cp
}

// Wrap 返回携带原因的副本
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// From 将任意错误转换为业务错误，未知错误视为上游失败
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Upstream("Internal server error", err)
}
