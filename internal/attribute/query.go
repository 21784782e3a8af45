package attribute

// Query maps a query-attribute name to the candidate values to match. Multiple
// values for one attribute mean "match any of these" (aliases, former names).
type Query map[string][]any

// QueryFromScalars normalizes the scalar convenience form (name → single
// value) into the canonical multi-valued query. This runs before a query
// reaches the resolver core, so translation and cache keying only ever see
// the multi-valued shape.
func QueryFromScalars(flat map[string]any) Query {
	q := make(Query, len(flat))
	for name, value := range flat {
		if seq, ok := value.([]any); ok {
			q[name] = seq
			continue
		}
		q[name] = []any{value}
	}
	return q
}

// UsernameQuery is the single-identifier lookup expressed as a query against
// the configured username attribute.
func UsernameQuery(usernameAttribute, username string) Query {
	return Query{usernameAttribute: []any{username}}
}
