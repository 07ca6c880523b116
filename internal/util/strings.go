package util

import "strings"

// TrimSpaceFields trims every argument, keeping positions.
func TrimSpaceFields(fields ...string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.TrimSpace(f)
	}
	return out
}

// TrimAndLower normalizes config keywords such as driver or level names.
func TrimAndLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// TrimEmptyCheck trims s and reports whether anything is left.
func TrimEmptyCheck(s string) (string, bool) {
	t := strings.TrimSpace(s)
	return t, t != ""
}

// TrimWithDefault trims s, falling back to def when blank.
func TrimWithDefault(s, def string) string {
	if t, ok := TrimEmptyCheck(s); ok {
		return t
	}
	return def
}

// FirstNonEmpty returns the first argument that is not blank after trimming.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if t, ok := TrimEmptyCheck(v); ok {
			return t
		}
	}
	return ""
}
