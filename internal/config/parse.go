package config

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Parse reads Motion-style `name = value` / `name value` lines from r into
// a fresh Registry seeded with defaults, applying deprecated-key rewrites
// as it goes (spec §6). `#`/`;` start a comment; values may be double-quoted
// to embed spaces.
func Parse(r io.Reader) (*Registry, error) {
	reg := New()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		name, value, err := splitNameValue(line)
		if err != nil {
			return nil, fmt.Errorf("config: line %d: %w", lineNo, err)
		}

		if res, reason := reg.EditSet(name, value); res == Rejected {
			return nil, fmt.Errorf("config: line %d: %s", lineNo, reason)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	return reg, nil
}

// splitNameValue accepts both `name = value` and `name value`, and strips
// one layer of double-quoting from the value.
func splitNameValue(line string) (string, string, error) {
	var name, rest string
	if idx := strings.IndexAny(line, " \t="); idx >= 0 {
		name = line[:idx]
		rest = strings.TrimSpace(line[idx+1:])
		rest = strings.TrimPrefix(rest, "=")
		rest = strings.TrimSpace(rest)
	} else {
		name = line
	}
	if name == "" {
		return "", "", fmt.Errorf("empty parameter name")
	}
	if len(rest) >= 2 && rest[0] == '"' && rest[len(rest)-1] == '"' {
		rest = rest[1 : len(rest)-1]
	}
	return name, rest, nil
}

// Serialize writes every value, defaults included, back out as `name value`
// lines in Spec order,
// sufficient for the round-trip law in spec §8 ("reparsing a saved config
// file must produce the same in-memory parameter set").
func Serialize(w io.Writer, reg *Registry) error {
	snap := reg.Snapshot()
	for _, p := range Spec {
		v, ok := snap[p.Name]
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s %s\n", p.Name, v); err != nil {
			return err
		}
	}
	return nil
}
