package schema

// Constructor compiles a schema with preset options.
type Constructor func(name string, ops Operations, opts ...Option) (*Schema, error)

// Defaults returns a constructor applying defaults before the caller's options.
// Per-operation settings (such as Async.Loading) still take precedence.
func Defaults(defaults ...Option) Constructor {
	return func(name string, ops Operations, opts ...Option) (*Schema, error) {
		all := make([]Option, 0, len(defaults)+len(opts))
		all = append(all, defaults...)
		all = append(all, opts...)
		return New(name, ops, all...)
	}
}
