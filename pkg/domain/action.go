package domain

import "encoding/json"

// MetaOriginalPayload is the meta key carrying the payload of the pending
// action on the matching success/failure action.
const MetaOriginalPayload = "originalPayload"

// Meta holds optional action metadata.
type Meta map[string]any

// Action is a flux-standard action.
// Zero-valued fields are treated as absent and omitted when serialized,
// so the encoded key set reflects only the provided fields.
type Action struct {
	Type    string `json:"type" yaml:"type" mapstructure:"type"`
	Payload any    `json:"payload,omitempty" yaml:"payload,omitempty" mapstructure:"payload"`
	// Error is only ever a literal true. A false value means "not set".
	Error bool `json:"error,omitempty" yaml:"error,omitempty" mapstructure:"error"`
	Meta  Meta `json:"meta,omitempty" yaml:"meta,omitempty" mapstructure:"meta"`
}

// OriginalPayload returns the payload of the pending action that produced this
// success/failure action, if any.
func (a Action) OriginalPayload() (any, bool) {
	if a.Meta == nil {
		return nil, false
	}
	v, ok := a.Meta[MetaOriginalPayload]
	return v, ok
}

// Fields returns the action as a map containing only the defined keys.
func (a Action) Fields() map[string]any {
	m := map[string]any{"type": a.Type}
	if a.Payload != nil {
		m["payload"] = a.Payload
	}
	if a.Error {
		m["error"] = true
	}
	if len(a.Meta) > 0 {
		m["meta"] = map[string]any(a.Meta)
	}
	return m
}

// MarshalJSON encodes the defined fields. An error payload is encoded as its
// message, since error values have no exported fields.
func (a Action) MarshalJSON() ([]byte, error) {
	m := a.Fields()
	if err, ok := a.Payload.(error); ok {
		m["payload"] = err.Error()
	}
	return json.Marshal(m)
}

func (Action) isEffect() {}
