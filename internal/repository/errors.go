// Package repository 定义各存储实现共享的错误。
package repository

import "errors"

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")
