package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_CopyOnWrite(t *testing.T) {
	orig := State{"a": 1}

	next := orig.With("b", 2)
	assert.Equal(t, State{"a": 1}, orig, "With must not mutate the receiver")
	assert.Equal(t, State{"a": 1, "b": 2}, next)

	merged := orig.Merge(State{"a": 5, "c": 3})
	assert.Equal(t, State{"a": 1}, orig)
	assert.Equal(t, State{"a": 5, "c": 3}, merged)

	var empty State
	assert.NotNil(t, empty.Clone())
	assert.Equal(t, State{"x": true}, empty.With("x", true))
}

func TestState_Int(t *testing.T) {
	s := State{"i": 3, "f": 4.0, "s": "nope"}
	assert.Equal(t, 3, s.Int("i"))
	assert.Equal(t, 4, s.Int("f"))
	assert.Equal(t, 0, s.Int("s"))
	assert.Equal(t, 0, s.Int("missing"))
}

func TestToInt(t *testing.T) {
	n, ok := ToInt(json.Number("12"))
	assert.True(t, ok)
	assert.Equal(t, 12, n)

	_, ok = ToInt(json.Number("1.5"))
	assert.False(t, ok)

	_, ok = ToInt(nil)
	assert.False(t, ok)
}

func TestSnapshot_CopyIsDeep(t *testing.T) {
	snap := NewSnapshot("s", "schemas", State{
		"schemas": State{"books": map[string]any{"tags": []any{"a"}}},
	})
	cp := snap.Copy()
	cp.Tree["schemas"].(State)["books"].(map[string]any)["tags"].([]any)[0] = "b"

	assert.Equal(t, "a", snap.Tree["schemas"].(State)["books"].(map[string]any)["tags"].([]any)[0])

	next := snap.Next(State{})
	assert.Equal(t, int64(1), next.Revision)
	assert.Equal(t, "s", next.SessionID)
	assert.Equal(t, "schemas", next.Namespace)
}

func TestAsState(t *testing.T) {
	s, ok := AsState(map[string]any{"a": 1})
	assert.True(t, ok)
	assert.Equal(t, State{"a": 1}, s)

	_, ok = AsState("string")
	assert.False(t, ok)
}
