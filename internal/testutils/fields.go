package testutils

// TestingT is the subset of testing.T the helpers need
type TestingT interface {
	Errorf(format string, args ...any)
}

// FieldsToMap converts alternating key/value log fields into a map.
// Malformed entries are reported through t and skipped.
func FieldsToMap(t TestingT, fields []any) map[string]any {
	out := make(map[string]any, len(fields)/2)

	for i := 0; i < len(fields); i += 2 {
		if i+1 >= len(fields) {
			t.Errorf("Malformed fields slice: missing value for key at index %d", i)
			continue
		}
		key, ok := fields[i].(string)
		if !ok {
			t.Errorf("Malformed fields slice: key at index %d is not a string, got %T", i, fields[i])
			continue
		}
		out[key] = fields[i+1]
	}

	return out
}
