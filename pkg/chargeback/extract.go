package chargeback

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/platform-cfm/cfmstore/pkg/resource"
)

// FindLine returns the first line containing search, or "" when no line
// matches.
func FindLine(search string, lines []string) string {
	for _, line := range lines {
		if strings.Contains(line, search) {
			return line
		}
	}
	return ""
}

// ExtractValues picks one word per instruction out of lines. Each
// instruction has the form "text,word": text selects the first line
// containing it, and word is either a 1-based word number or "last".
func ExtractValues(lines []string, instructions []string) ([]string, error) {
	results := make([]string, 0, len(instructions))
	for _, instruction := range instructions {
		search, word, ok := strings.Cut(instruction, ",")
		if !ok {
			return nil, fmt.Errorf("malformed extraction instruction %q", instruction)
		}

		line := FindLine(search, lines)
		if line == "" {
			return nil, fmt.Errorf("no line containing %q", search)
		}

		words := strings.Split(line, " ")
		if word == "last" {
			results = append(results, words[len(words)-1])
			continue
		}

		n, err := strconv.Atoi(word)
		if err != nil || n < 1 || n > len(words) {
			return nil, fmt.Errorf("no word #%s in line %q", word, line)
		}
		results = append(results, words[n-1])
	}
	return results, nil
}

// ExtractFromResource reads the named resource remote-only and applies
// ExtractValues. A missing resource yields nil results and no error, so
// optional inputs can be skipped.
func ExtractFromResource(ctx context.Context, store *resource.Store, name string, instructions []string) ([]string, error) {
	reader, err := store.OpenReader(ctx, name,
		resource.ForceRemote(), resource.SuppressNotFound())
	if err != nil {
		return nil, err
	}
	if reader == nil {
		return nil, nil
	}
	defer reader.Close()

	lines, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return ExtractValues(lines, instructions)
}
