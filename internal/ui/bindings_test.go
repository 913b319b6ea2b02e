package ui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jqx/internal/config"
)

type counter struct {
	hits map[string]int
}

func newTestBindings() *KeyBindings[*counter, string] {
	b := NewKeyBindings[*counter, string]()
	b.Add("up", "Move up", func(c *counter) (string, error) {
		c.hits["up"]++
		return "moved", nil
	}, "<up>", "C-p")
	b.Add("fail", "", func(*counter) (string, error) {
		return "", errors.New("boom")
	}, "x")
	return b
}

func TestKeyBindingsHandle(t *testing.T) {
	b := newTestBindings()
	c := &counter{hits: map[string]int{}}

	res, ok, err := b.Handle("C-p", c)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "moved", res)

	_, ok, err = b.Handle("<up>", c)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, c.hits["up"], "aliases share one handler")

	_, ok, err = b.Handle("p", c)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = b.Handle("x", c)
	assert.True(t, ok)
	assert.EqualError(t, err, "boom")
}

func TestKeyBindingsRebind(t *testing.T) {
	b := newTestBindings()
	c := &counter{hits: map[string]int{}}

	require.NoError(t, b.Rebind("x", "up"))
	_, ok, err := b.Handle("x", c)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, c.hits["up"])

	actions := b.Actions()
	require.Len(t, actions, 2)
	assert.Equal(t, config.Action{Name: "up", Description: "Move up", Keys: []string{"<up>", "C-p", "x"}}, actions[0])
	assert.Empty(t, actions[1].Keys, "a rebound key leaves its old action")

	err = b.Rebind("y", "explode")
	assert.ErrorIs(t, err, config.ErrUnknownAction)
	assert.Contains(t, err.Error(), `"explode"`)
}

func TestKeyBindingsApplyConfig(t *testing.T) {
	b := newTestBindings()
	cfg := config.Default()
	cfg.Bindings = map[string]map[string]string{config.PanelTable: {"k": "up"}}
	require.NoError(t, cfg.ApplyBindings([]config.PanelBindings{{Name: config.PanelTable, Binder: b}}))

	_, ok := b.Lookup("k")
	assert.True(t, ok)
}
