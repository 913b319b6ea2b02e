package ui

import (
	"fmt"

	"github.com/oakwood-commons/jqx/internal/config"
)

// Handler is a bound action. It receives its context explicitly.
type Handler[C, R any] func(C) (R, error)

type action[C, R any] struct {
	name        string
	description string
	fn          Handler[C, R]
	keys        []string
}

// KeyBindings maps key labels to named handlers. Several labels may share a
// handler. Lookup is by exact label.
type KeyBindings[C, R any] struct {
	actions []*action[C, R]
	byName  map[string]*action[C, R]
	byKey   map[string]*action[C, R]
}

// NewKeyBindings returns an empty binding table.
func NewKeyBindings[C, R any]() *KeyBindings[C, R] {
	return &KeyBindings[C, R]{
		byName: map[string]*action[C, R]{},
		byKey:  map[string]*action[C, R]{},
	}
}

// Add registers fn as action name, bound to keys.
func (b *KeyBindings[C, R]) Add(name, description string, fn Handler[C, R], keys ...string) {
	a := &action[C, R]{name: name, description: description, fn: fn}
	b.actions = append(b.actions, a)
	b.byName[name] = a
	for _, k := range keys {
		b.bind(k, a)
	}
}

func (b *KeyBindings[C, R]) bind(key string, a *action[C, R]) {
	if prev, ok := b.byKey[key]; ok {
		for i, k := range prev.keys {
			if k == key {
				prev.keys = append(prev.keys[:i:i], prev.keys[i+1:]...)
				break
			}
		}
	}
	b.byKey[key] = a
	a.keys = append(a.keys, key)
}

// Lookup returns the handler bound to key.
func (b *KeyBindings[C, R]) Lookup(key string) (Handler[C, R], bool) {
	a, ok := b.byKey[key]
	if !ok {
		return nil, false
	}
	return a.fn, true
}

// Handle runs the handler bound to key. ok is false when key is unbound.
func (b *KeyBindings[C, R]) Handle(key string, ctx C) (res R, ok bool, err error) {
	fn, ok := b.Lookup(key)
	if !ok {
		return res, false, nil
	}
	res, err = fn(ctx)
	return res, true, err
}

// Rebind binds key to the action called name.
func (b *KeyBindings[C, R]) Rebind(key, name string) error {
	a, ok := b.byName[name]
	if !ok {
		return fmt.Errorf("%w %q", config.ErrUnknownAction, name)
	}
	b.bind(key, a)
	return nil
}

// Actions lists every action with its current keys, in registration order.
func (b *KeyBindings[C, R]) Actions() []config.Action {
	out := make([]config.Action, 0, len(b.actions))
	for _, a := range b.actions {
		out = append(out, config.Action{
			Name:        a.name,
			Description: a.description,
			Keys:        append([]string(nil), a.keys...),
		})
	}
	return out
}
