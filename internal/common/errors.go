package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// AppError 应用级错误结构
type AppError struct {
	Code    string
	Message string
	Status  int // 上游 HTTP 状态码，仅 UpstreamError 使用
	Err     error
}

func (e *AppError) Error() string {
	prefix := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Status != 0 {
		prefix = fmt.Sprintf("%s (status %d)", prefix, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", prefix, e.Err)
	}
	return prefix
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WrapError 包装错误
func WrapError(code, message string, err error) error {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewError 创建新错误
func NewError(code, message string) error {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError 输入缺失或非法，不会触发任何上游调用
func NewValidationError(message string) error {
	return &AppError{Code: ErrCodeInvalidInput, Message: message}
}

// NewUpstreamError GitHub 返回非 2xx，携带状态码
func NewUpstreamError(status int, message string, err error) error {
	code := ErrCodeGitHubAPI
	if isRateLimitStatus(status) {
		code = ErrCodeRateLimited
	}
	return &AppError{Code: code, Message: message, Status: status, Err: err}
}

// NewPersistenceError 写库失败
func NewPersistenceError(message string, err error) error {
	return &AppError{Code: ErrCodeDatabase, Message: message, Err: err}
}

// NewTimeoutError 导入超时或被取消，err 应为 ctx.Err()
func NewTimeoutError(message string, err error) error {
	return &AppError{Code: ErrCodeTimeout, Message: message, Err: err}
}

// IsTimeout 超时或取消，不区分是否已包装成 AppError
func IsTimeout(err error) bool {
	return CodeOf(err) == ErrCodeTimeout ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}

// 错误码常量
const (
	ErrCodeGitHubAPI    = "GITHUB_API_ERROR"
	ErrCodeRateLimited  = "GITHUB_RATE_LIMITED"
	ErrCodeDatabase     = "DATABASE_ERROR"
	ErrCodeNotification = "NOTIFICATION_ERROR"
	ErrCodeTimeout      = "TIMEOUT"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// CodeOf 返回错误链上第一个 AppError 的错误码，没有则为 INTERNAL_ERROR
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// IsValidation 是否为输入校验错误
func IsValidation(err error) bool {
	return CodeOf(err) == ErrCodeInvalidInput
}

// NewNotFoundError 查询的记录不存在
func NewNotFoundError(message string) error {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// IsNotFound 是否为记录不存在
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

// IsUpstream 是否为 GitHub 上游错误 (含限流)
func IsUpstream(err error) bool {
	code := CodeOf(err)
	return code == ErrCodeGitHubAPI || code == ErrCodeRateLimited
}

// IsRateLimited 上游是否因限流失败 (403/429)
func IsRateLimited(err error) bool {
	return CodeOf(err) == ErrCodeRateLimited
}

// IsPersistence 是否为写库错误
func IsPersistence(err error) bool {
	return CodeOf(err) == ErrCodeDatabase
}

// UpstreamStatus 取出上游状态码，没有则返回 0
func UpstreamStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return 0
}

func isRateLimitStatus(status int) bool {
	return status == http.StatusForbidden || status == http.StatusTooManyRequests
}
