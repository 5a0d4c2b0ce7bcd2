// Package errors 提供统一的错误定义
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误 (1xxx)
	CodeSuccess            ErrorCode = "0"
	CodeUnknown            ErrorCode = "1000"
	CodeInvalidParam       ErrorCode = "1001"
	CodeNotFound           ErrorCode = "1004"
	CodeConflict           ErrorCode = "1005"
	CodeTooManyRequests    ErrorCode = "1006"
	CodeInternalError      ErrorCode = "1007"
	CodeServiceUnavailable ErrorCode = "1008"

	// 资源错误 (3xxx)
	CodeItemNotFound ErrorCode = "3001"
	CodeJobNotFound  ErrorCode = "3002"
	CodeNoImage      ErrorCode = "3003"

	// 业务错误 (4xxx)
	CodeSkipped              ErrorCode = "4001"
	CodeAIResponseParse      ErrorCode = "4002"
	CodeConnectionTestFailed ErrorCode = "4003"
	CodeNothingSelected      ErrorCode = "4004"

	// 外部服务错误 (5xxx)
	CodeNotConfigured          ErrorCode = "5000"
	CodeDatabaseError          ErrorCode = "5001"
	CodeCacheError             ErrorCode = "5002"
	CodePersistenceError       ErrorCode = "5003"
	CodeNetworkError           ErrorCode = "5004"
	CodeInvalidGatewayResponse ErrorCode = "5005"
	CodeGatewayInternalError   ErrorCode = "5006"
	CodeAIProviderError        ErrorCode = "5007"
)

// codeNames 错误码对应的机器可读名称
var codeNames = map[ErrorCode]string{
	CodeSuccess:                "OK",
	CodeUnknown:                "UNKNOWN",
	CodeInvalidParam:           "INVALID_PARAM",
	CodeNotFound:               "NOT_FOUND",
	CodeConflict:               "CONFLICT",
	CodeTooManyRequests:        "TOO_MANY_REQUESTS",
	CodeInternalError:          "INTERNAL_ERROR",
	CodeServiceUnavailable:     "SERVICE_UNAVAILABLE",
	CodeItemNotFound:           "ITEM_NOT_FOUND",
	CodeJobNotFound:            "JOB_NOT_FOUND",
	CodeNoImage:                "NO_IMAGE",
	CodeSkipped:                "SKIPPED",
	CodeAIResponseParse:        "AI_RESPONSE_PARSE_ERROR",
	CodeConnectionTestFailed:   "CONNECTION_TEST_FAILED",
	CodeNothingSelected:        "NOTHING_SELECTED",
	CodeNotConfigured:          "NOT_CONFIGURED",
	CodeDatabaseError:          "DATABASE_ERROR",
	CodeCacheError:             "CACHE_ERROR",
	CodePersistenceError:       "PERSISTENCE_ERROR",
	CodeNetworkError:           "NETWORK_ERROR",
	CodeInvalidGatewayResponse: "INVALID_GATEWAY_RESPONSE",
	CodeGatewayInternalError:   "GATEWAY_INTERNAL_ERROR",
	CodeAIProviderError:        "AI_PROVIDER_ERROR",
}

// Name 返回错误码名称
func (c ErrorCode) Name() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// AppError 应用错误
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，使 errors.Is(err, ErrNotConfigured) 可用
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail 添加详细信息
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// WithError 添加底层错误
func (e *AppError) WithError(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Newf 创建带格式化消息的应用错误
func Newf(code ErrorCode, format string, args ...any) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
}

// codeToHTTPStatus 错误码转 HTTP 状态码
func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam, CodeNothingSelected:
		return http.StatusBadRequest
	case CodeNotFound, CodeItemNotFound, CodeJobNotFound, CodeNoImage:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeServiceUnavailable, CodeNotConfigured:
		return http.StatusServiceUnavailable
	case CodeNetworkError, CodeInvalidGatewayResponse, CodeGatewayInternalError,
		CodeAIProviderError, CodeAIResponseParse, CodeConnectionTestFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// 预定义错误
var (
	ErrInvalidParam       = New(CodeInvalidParam, "invalid parameter")
	ErrNotFound           = New(CodeNotFound, "resource not found")
	ErrTooManyRequests    = New(CodeTooManyRequests, "too many requests")
	ErrInternalError      = New(CodeInternalError, "internal server error")
	ErrServiceUnavailable = New(CodeServiceUnavailable, "service unavailable")

	ErrItemNotFound    = New(CodeItemNotFound, "item not found")
	ErrJobNotFound     = New(CodeJobNotFound, "bulk job not found")
	ErrNoImage         = New(CodeNoImage, "item has no featured image")
	ErrSkipped         = New(CodeSkipped, "skipped")
	ErrNothingSelected = New(CodeNothingSelected, "no operation selected")

	ErrNotConfigured          = New(CodeNotConfigured, "gateway endpoint or api key is not configured")
	ErrNetwork                = New(CodeNetworkError, "gateway unreachable")
	ErrInvalidGatewayResponse = New(CodeInvalidGatewayResponse, "invalid response from gateway")
	ErrGatewayInternal        = New(CodeGatewayInternalError, "gateway reported an error")
	ErrAIProvider             = New(CodeAIProviderError, "ai provider error")
	ErrAIResponseParse        = New(CodeAIResponseParse, "ai response is not valid JSON")
	ErrPersistence            = New(CodePersistenceError, "failed to persist result")
)

// IsAppError 检查是否为 AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError 将错误转换为 AppError
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeUnknown, "unknown error")
}

// CodeOf 返回错误码，nil 返回 CodeSuccess
func CodeOf(err error) ErrorCode {
	if err == nil {
		return CodeSuccess
	}
	return AsAppError(err).Code
}
