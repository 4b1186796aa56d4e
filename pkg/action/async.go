package action

import (
	"context"
	"fmt"

	"github.com/aretw0/reschema/pkg/domain"
)

// NewAsyncCreator returns a creator producing deferred effects around request.
// peers is read when the effect runs, so it may be filled after construction.
func NewAsyncCreator(actionName string, request Request, peers Creators) Creator {
	actionType := UpperSnake(actionName)
	successType := SuccessType(actionType)
	failureType := FailureType(actionType)

	return func(payload any) domain.Effect {
		return domain.NewDeferred(actionType, payload, func(ctx context.Context, dispatch domain.DispatchFunc) *domain.Future {
			dispatch(ctx, Create(actionType, payload, false, nil))

			var meta domain.Meta
			if payload != nil {
				meta = domain.Meta{domain.MetaOriginalPayload: payload}
			}

			future := domain.NewFuture()
			go func() {
				response, err := invoke(ctx, request, payload, Bind(peers, dispatch), dispatch)
				if err != nil {
					dispatch(ctx, Create(failureType, err, true, meta))
					future.Reject(err)
					return
				}
				dispatch(ctx, Create(successType, response, false, meta))
				future.Resolve(response)
			}()
			return future
		})
	}
}

func invoke(ctx context.Context, request Request, payload any, peers Bound, dispatch domain.DispatchFunc) (response any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", domain.ErrRequestPanic, r)
		}
	}()
	return request(ctx, payload, peers, dispatch)
}
