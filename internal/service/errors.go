package service

import "errors"

// 业务哨兵错误，路由层据此映射 HTTP 状态码
var (
	ErrNotFound          = errors.New("resource not found")
	ErrOutOfStock        = errors.New("insufficient stock")
	ErrInactiveProduct   = errors.New("product not available")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrForbidden         = errors.New("operation not permitted")
	ErrValidation        = errors.New("invalid request")
	ErrDuplicate         = errors.New("resource already exists")
)
