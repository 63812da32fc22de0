// internal/errors/errors.go
package errors

import (
	"context"
	"errors"
	"fmt"
)

// ErrorType 定义错误类型
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation_error"
	ErrorTypeOracle        ErrorType = "oracle_failure"
	ErrorTypeConfiguration ErrorType = "configuration_error"
	ErrorTypeTimeout       ErrorType = "timeout"
	ErrorTypeConflict      ErrorType = "conflict"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeError         ErrorType = "processing_error"
)

// AppError 应用程序错误结构
type AppError struct {
	Type    ErrorType
	Message string // 面向用户的可读信息
	Kind    string // 关联的内容类型，可为空
	Err     error
	Code    string
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap 实现错误链接
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithKind 标记错误所属的内容类型
func (e *AppError) WithKind(kind string) *AppError {
	e.Kind = kind
	return e
}

// NewAppError 创建新的 AppError
func NewAppError(errType ErrorType, message string, originalError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     originalError,
		Code:    generateErrorCode(errType),
	}
}

// NewValidationError 创建验证错误
func NewValidationError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeValidation, message, originalError)
}

// NewOracleError 创建模型调用失败错误
func NewOracleError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeOracle, message, originalError)
}

// NewConfigurationError 创建配置错误（目录中不存在的风格或语言）
func NewConfigurationError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeConfiguration, message, originalError)
}

// NewTimeoutError 创建超时错误
func NewTimeoutError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeTimeout, message, originalError)
}

// NewConflictError 创建冲突错误
func NewConflictError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeConflict, message, originalError)
}

// NewNotFoundError 创建未找到错误
func NewNotFoundError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeNotFound, message, originalError)
}

// NewProcessingError 创建处理错误
func NewProcessingError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeError, message, originalError)
}

// TypeOf 返回错误类型，非 AppError 返回空字符串
func TypeOf(err error) ErrorType {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type
	}
	return ""
}

func IsValidationError(err error) bool    { return TypeOf(err) == ErrorTypeValidation }
func IsOracleError(err error) bool        { return TypeOf(err) == ErrorTypeOracle }
func IsConfigurationError(err error) bool { return TypeOf(err) == ErrorTypeConfiguration }
func IsTimeoutError(err error) bool       { return TypeOf(err) == ErrorTypeTimeout }
func IsConflictError(err error) bool      { return TypeOf(err) == ErrorTypeConflict }
func IsNotFoundError(err error) bool      { return TypeOf(err) == ErrorTypeNotFound }

// generateErrorCode 根据错误类型生成错误代码
func generateErrorCode(errType ErrorType) string {
	switch errType {
	case ErrorTypeValidation:
		return "VALIDATION_ERROR"
	case ErrorTypeOracle:
		return "ORACLE_FAILURE"
	case ErrorTypeConfiguration:
		return "CONFIGURATION_ERROR"
	case ErrorTypeTimeout:
		return "TIMEOUT"
	case ErrorTypeConflict:
		return "CONFLICT"
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypeError:
		return "PROCESSING_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}

// FromOracle 将模型调用返回的原始错误归类：超时为 TimeoutError，其余为 OracleFailure。
// 已经是 AppError 的错误原样返回。
func FromOracle(err error, message string) error {
	if err == nil {
		return nil
	}
	var appError *AppError
	if errors.As(err, &appError) {
		return appError
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(message, err)
	}
	return NewOracleError(message, err)
}

// ForKind 用面向用户的信息重新包装错误并标记内容类型，保留原错误的类型与代码。
// 非 AppError 视为模型调用失败
func ForKind(err error, message, kind string) *AppError {
	var appError *AppError
	if errors.As(err, &appError) {
		return &AppError{
			Type:    appError.Type,
			Message: message,
			Kind:    kind,
			Err:     appError,
			Code:    appError.Code,
		}
	}
	return NewOracleError(message, err).WithKind(kind)
}

// MessageOf 返回面向用户的信息；非 AppError 返回 err.Error()
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Message
	}
	return err.Error()
}
