package models

import (
	"bytes"
	"encoding/json"
)

// ============================================================
// Optional value
// ============================================================

// Opt хранит значение вместе с признаком "задано". Отсутствующий ключ и null
// в JSON дают незаданное значение, поэтому 0 и "не передано" различимы.
type Opt[T any] struct {
	Value T
	Set   bool
}

func Some[T any](v T) Opt[T] {
	return Opt[T]{Value: v, Set: true}
}

func (o Opt[T]) Get() (T, bool) {
	return o.Value, o.Set
}

// Or возвращает значение или def, если значение не задано.
func (o Opt[T]) Or(def T) T {
	if !o.Set {
		return def
	}
	return o.Value
}

// IsZero нужен для тега omitzero.
func (o Opt[T]) IsZero() bool {
	return !o.Set
}

func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o *Opt[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Opt[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Opt[T]{Value: v, Set: true}
	return nil
}
