package schema

import "github.com/aretw0/reschema/pkg/domain"

// Keys written by the default loading transitions.
const (
	KeyIsLoading = "isLoading"
	KeyError     = "error"
)

// LoadingSpec is the secondary transition set run after an async operation's
// own transitions for each phase. Nil members are the identity.
type LoadingSpec struct {
	Initial domain.Reducer
	Success domain.Reducer
	Failure domain.Reducer
}

// NoLoading disables loading bookkeeping for an operation.
var NoLoading = &LoadingSpec{}

// DefaultLoading returns the default bookkeeping:
// pending sets isLoading, success clears it, failure clears it and records the error.
func DefaultLoading() *LoadingSpec {
	return &LoadingSpec{
		Initial: func(s domain.State, _ domain.Action) domain.State {
			return s.Merge(domain.State{KeyIsLoading: true, KeyError: nil})
		},
		Success: func(s domain.State, _ domain.Action) domain.State {
			return s.Merge(domain.State{KeyIsLoading: false, KeyError: nil})
		},
		Failure: func(s domain.State, a domain.Action) domain.State {
			return s.Merge(domain.State{KeyIsLoading: false, KeyError: errorValue(a.Payload)})
		},
	}
}

// errorValue keeps the slice serializable: errors are stored by message.
func errorValue(payload any) any {
	if err, ok := payload.(error); ok {
		return err.Error()
	}
	return payload
}
