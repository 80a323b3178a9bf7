package chat

import (
	"strings"
	"unicode/utf8"
)

// MaxMessageLength is the Discord limit for message content.
const MaxMessageLength = 2000

// SplitOptions controls how long content is broken into several messages.
type SplitOptions struct {
	// MaxLength of each chunk including Prepend/Append. Zero means MaxMessageLength.
	MaxLength int
	// Char is the preferred split point. Empty means "\n".
	Char string
	// Prepend is added to every chunk but the first, Append to every chunk but the last.
	Prepend string
	Append  string
}

// Split breaks content into chunks that fit opts.MaxLength. It prefers opts.Char,
// then whitespace, and never splits inside a UTF-8 sequence.
func Split(content string, opts SplitOptions) []string {
	max := opts.MaxLength
	if max <= 0 {
		max = MaxMessageLength
	}
	char := opts.Char
	if char == "" {
		char = "\n"
	}
	if len(content) <= max {
		return []string{content}
	}

	budget := max - len(opts.Prepend) - len(opts.Append)
	if budget < 1 {
		budget = 1
	}

	var parts []string
	remaining := content
	for len(remaining) > 0 {
		if len(remaining) <= budget {
			parts = append(parts, remaining)
			break
		}
		cut := splitPoint(remaining, budget, char)
		part := strings.TrimRight(remaining[:cut], " \t\r\n")
		if part != "" {
			parts = append(parts, part)
		}
		remaining = strings.TrimLeft(remaining[cut:], " \t\r\n")
	}

	for i := range parts {
		if i > 0 {
			parts[i] = opts.Prepend + parts[i]
		}
		if i < len(parts)-1 {
			parts[i] += opts.Append
		}
	}
	return parts
}

func splitPoint(s string, limit int, char string) int {
	window := s[:limit]
	if i := strings.LastIndex(window, char); i > 0 {
		return i
	}
	if i := strings.LastIndexAny(window, " \t\n"); i > 0 {
		return i
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	if limit == 0 {
		_, size := utf8.DecodeRuneInString(s)
		return size
	}
	return limit
}
