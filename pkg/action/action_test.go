package action_test

import (
	"testing"

	"github.com/aretw0/reschema/pkg/action"
	"github.com/aretw0/reschema/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestCreate(t *testing.T) {
	t.Run("Flux Standard Action", func(t *testing.T) {
		got := action.Create("ACTION", "test payload", true, domain.Meta{"k": "v"})
		assert.Equal(t, domain.Action{
			Type:    "ACTION",
			Payload: "test payload",
			Error:   true,
			Meta:    domain.Meta{"k": "v"},
		}, got)
	})

	t.Run("Partial Arguments", func(t *testing.T) {
		got := action.Create("ACTION", "test payload", false, nil)
		assert.Equal(t, domain.Action{Type: "ACTION", Payload: "test payload"}, got)
		assert.Equal(t, map[string]any{"type": "ACTION", "payload": "test payload"}, got.Fields())
	})

	t.Run("Empty Meta Dropped", func(t *testing.T) {
		got := action.Create("ACTION", nil, false, domain.Meta{})
		assert.Nil(t, got.Meta)
	})
}

func TestNaming(t *testing.T) {
	tests := []struct {
		model, method, explicit string
		want                    string
	}{
		{"counter", "add", "", "COUNTER_ADD"},
		{"counter", "addAsync", "", "COUNTER_ADD_ASYNC"},
		{"counter", "dispatchSideEffects", "", "COUNTER_DISPATCH_SIDE_EFFECTS"},
		{"books", "add", "addBook", "ADD_BOOK"},
		{"books", "add", "ADD_BOOK", "ADD_BOOK"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, action.TypeName(tt.model, tt.method, tt.explicit))
		})
	}

	assert.Equal(t, "COUNTER_ADD_SUCCESS", action.SuccessType("COUNTER_ADD"))
	assert.Equal(t, "COUNTER_ADD_FAILURE", action.FailureType("COUNTER_ADD"))
}

func TestNewCreator(t *testing.T) {
	create := action.NewCreator("ACTION")
	assert.Equal(t,
		domain.Action{Type: "ACTION", Payload: "my payload", Meta: domain.Meta{"a": 1}},
		create("my payload", false, domain.Meta{"a": 1}),
	)

	camel := action.NewCreator("myAction")
	assert.Equal(t, "MY_ACTION", camel(nil, false, nil).Type)
}
