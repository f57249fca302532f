package gotablecache

// DefaultOptions returns the recommended set of options for getting started:
// table auto-creation. Production deployments that provision tables out of
// band should configure explicitly instead.
func DefaultOptions() []Option {
	return []Option{
		WithCreateTable(),
	}
}
