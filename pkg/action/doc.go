/*
Package action builds flux-standard actions and the creators that produce them.

Synchronous creators return a plain domain.Action. Asynchronous creators return a
*domain.Deferred that, when run by a dispatcher, performs a three-phase sequence:

 1. dispatch the pending action {Type, Payload}
 2. run the request function on its own goroutine
 3. dispatch exactly one of TYPE_SUCCESS (payload = response) or
    TYPE_FAILURE (payload = error, error = true), both carrying
    meta.originalPayload when the pending payload was non-nil.

The returned Future resolves with the response, or is rejected with the request
error so the caller observes the failure as well. The kernel adds no retries,
deduplication or cancellation: concurrent invocations run independently.
*/
package action
