/*
Package dsl provides a fluent Go DSL for declaring schemas.

It is an alternative to writing schema.Operations literals: operations are
added one at a time and Build compiles them with schema.New.

Example usage:

	b := dsl.New("books").
		Initial(domain.State{"count": 0}).
		Select("count", func(s, _ domain.State, _ any) any { return s["count"] })

	b.Async("fetch").
		RequestNamed(requests, "books.fetch").
		Success(func(s domain.State, a domain.Action) domain.State {
			return s.With("items", a.Payload)
		})

	b.Sync("clear").
		Reduce(func(s domain.State, _ domain.Action) domain.State {
			return s.With("items", nil)
		})

	books, err := b.Build()
*/
package dsl
