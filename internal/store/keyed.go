package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
)

// KeyedList stores a whole slice of T as one JSON blob under a fixed key.
// It backs the small ad hoc collections that have no table of their own.
type KeyedList[T any] struct {
	b   Backend
	key string
}

func NewKeyedList[T any](b Backend, key string) *KeyedList[T] {
	return &KeyedList[T]{b: b, key: key}
}

func (l *KeyedList[T]) Key() string { return l.key }

// Get returns the stored slice; a missing key yields an empty slice.
func (l *KeyedList[T]) Get(ctx context.Context) ([]T, error) {
	data, err := l.b.GetList(ctx, l.key)
	if err != nil {
		return nil, eris.Wrapf(err, "store: get list %s", l.key)
	}
	if len(data) == 0 {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, eris.Wrapf(err, "store: decode list %s", l.key)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func (l *KeyedList[T]) Save(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return eris.Wrapf(err, "store: encode list %s", l.key)
	}
	return eris.Wrapf(l.b.PutList(ctx, l.key, data), "store: put list %s", l.key)
}
