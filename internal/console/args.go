package console

import (
	"fmt"
	"strings"
)

// splitArgs splits a line on whitespace; double quotes group words.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inQuote bool
		started bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			started = true
		case !inQuote && (r == ' ' || r == '\t'):
			if started {
				args = append(args, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote in %q", line)
	}
	if started {
		args = append(args, cur.String())
	}
	return args, nil
}

// Quote renders a name so splitArgs reads it back as one argument.
func Quote(s string) string {
	if strings.ContainsAny(s, " \t") || s == "" {
		return `"` + s + `"`
	}
	return s
}
