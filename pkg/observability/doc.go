/*
Package observability turns store lifecycle events into metrics and logs.

Both Metrics and Logging produce domain.Hooks; combine them with
domain.MergeHooks and pass the result to reschema.WithHooks.
*/
package observability
