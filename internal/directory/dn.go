package directory

import "strings"

// EscapeDNValue prepares a raw naming value for embedding in an RDN per
// RFC 4514. The metacharacters , + " \ < > ; get a backslash everywhere;
// '#' and spaces only in the positions where they are significant (leading,
// and for spaces also trailing); NUL is hex-escaped.
func EscapeDNValue(value string) string {
	if value == "" {
		return value
	}

	var result strings.Builder
	result.Grow(len(value) + 8)

	for i, r := range value {
		switch r {
		case ',', '+', '"', '\\', '<', '>', ';':
			result.WriteRune('\\')
			result.WriteRune(r)
		case '#':
			if i == 0 {
				result.WriteRune('\\')
			}
			result.WriteRune(r)
		case ' ':
			if i == 0 || i == len(value)-1 {
				result.WriteRune('\\')
			}
			result.WriteRune(r)
		case 0:
			result.WriteString("\\00")
		default:
			result.WriteRune(r)
		}
	}

	return result.String()
}
