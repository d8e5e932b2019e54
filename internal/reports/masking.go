package reports

import "strings"

// MaskString hides the middle of a document number. Values of four
// characters or fewer give no partial away at all.
func MaskString(s string) string {
	if s == "" {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= 4 {
		return "****"
	}
	return string(runes[:2]) + strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-2:])
}

// MaskName keeps just enough of a person's name to let the owner
// recognize their own record: first and last letter of the first name
// and, when present, the initial of the last name.
func MaskName(name string) string {
	if name == "" {
		return ""
	}
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return ""
	}

	first := []rune(parts[0])
	stars := len(first) - 2
	if stars < 0 {
		stars = 0
	}

	if len(parts) == 1 {
		masked := string(first[0]) + strings.Repeat("*", stars)
		if len(first) > 1 {
			masked += string(first[len(first)-1])
		}
		return masked
	}

	last := []rune(parts[len(parts)-1])
	return string(first[0]) + strings.Repeat("*", stars) + string(first[len(first)-1]) +
		" " + string(last[0]) + "."
}

func maskStringPtr(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	m := MaskString(*s)
	return &m
}

func maskNamePtr(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	m := MaskName(*s)
	return &m
}
