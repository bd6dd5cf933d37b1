// Package apperr описывает структурированные ошибки сервиса: машиночитаемый
// вид (Kind) плюс человекочитаемое сообщение, путь к полю и сырой ответ
// внешнего сервиса для диагностики.
package apperr

import (
	"errors"
	"fmt"
)

// ============================================================
// Kinds
// ============================================================

type Kind string

const (
	KindValidation      Kind = "VALIDATION"
	KindAnalysis        Kind = "ANALYSIS"
	KindPrecondition    Kind = "PRECONDITION"
	KindInvalidEdit     Kind = "INVALID_EDIT"
	KindRender          Kind = "RENDER"
	KindUpstreamTimeout Kind = "UPSTREAM_TIMEOUT"
	KindNotFound        Kind = "NOT_FOUND"
	KindStaleResult     Kind = "STALE_RESULT"
	KindBadRequest      Kind = "BAD_REQUEST"
	KindInternal        Kind = "INTERNAL"
)

// Подвиды ANALYSIS: ответ модели вообще не JSON или JSON не по схеме.
const (
	SubkindNotJSON = "not_json"
	SubkindSchema  = "schema"
)

// ============================================================
// Error
// ============================================================

type Error struct {
	Kind    Kind
	Message string
	Field   string // путь к полю, например objects[2].x
	Subkind string
	Raw     string // сырой ответ внешнего сервиса
	Cause   error
}

func (e *Error) Error() string {
	msg := string(e.Kind) + ": " + e.Message
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithField возвращает копию ошибки с путём к полю.
func (e *Error) WithField(field string) *Error {
	cp := *e
	cp.Field = field
	return &cp
}

// WithRaw прикладывает сырой ответ внешнего сервиса.
func (e *Error) WithRaw(raw string) *Error {
	cp := *e
	cp.Raw = raw
	return &cp
}

// WithSubkind уточняет вид ошибки.
func (e *Error) WithSubkind(sub string) *Error {
	cp := *e
	cp.Subkind = sub
	return &cp
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is проверяет, есть ли в цепочке ошибка указанного вида.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// KindOf возвращает вид первой *Error в цепочке или пустую строку.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// As достаёт *Error из цепочки.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
