package service

import (
	"errors"
)

// 业务错误（调用方按 errors.Is 判断）
var (
	// ErrNotFound 记录在租户范围内不存在
	ErrNotFound = errors.New("record not found")

	// ErrInvalidTransition 非法状态流转（如关闭非 resolved 状态的事件）
	ErrInvalidTransition = errors.New("invalid status transition")
)
