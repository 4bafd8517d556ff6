package myErrors

import (
	"errors"
	"fmt"
)

// ErrCacheMiss 表示在缓存层未找到对应的键值
var ErrCacheMiss = errors.New("cache: key not found (miss)")

// Kind 业务错误分类，控制器层据此映射 HTTP 状态码。
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindPermission
	KindDepthExceeded
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindPermission:
		return "permission"
	case KindDepthExceeded:
		return "depth_exceeded"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error 携带分类、涉及的实体与字段，调用方可以据此给出具体提示。
type Error struct {
	Kind    Kind
	Entity  string // post / reply / vote
	Field   string // 校验失败的字段名
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Entity != "" {
		msg += " [" + e.Entity + "]"
	}
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is 只比较 Kind，使 errors.Is(err, ErrNotFound) 对任意实体都成立。
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Entity == "" && t.Field == "" && t.Message == ""
}

// 各分类的哨兵值，仅用于 errors.Is 判断。
var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrPermission    = &Error{Kind: KindPermission}
	ErrDepthExceeded = &Error{Kind: KindDepthExceeded}
	ErrConflict      = &Error{Kind: KindConflict}
)

func Validation(field, message string) error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

func NotFound(entity string, id uint64) error {
	return &Error{Kind: KindNotFound, Entity: entity, Message: fmt.Sprintf("id %d 不存在或已删除", id)}
}

func Permission(entity, message string) error {
	return &Error{Kind: KindPermission, Entity: entity, Message: message}
}

func DepthExceeded(depth, max int) error {
	return &Error{Kind: KindDepthExceeded, Entity: "reply", Field: "parentReplyId",
		Message: fmt.Sprintf("回复层级 %d 超过上限 %d", depth, max)}
}

func Conflict(entity string, id uint64) error {
	return &Error{Kind: KindConflict, Entity: entity, Message: fmt.Sprintf("id %d 并发修改冲突", id)}
}

// KindOf 返回错误链上第一个业务错误的分类，非业务错误返回 0。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
