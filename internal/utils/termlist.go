package utils

import (
	"bufio"
	"os"
	"strings"
)

// TermList holds per-category discovery query terms loaded from a file
type TermList struct {
	terms map[string][]string
}

// LoadTermList loads "category: term" lines from a file.
// Blank lines and lines starting with # are ignored.
func LoadTermList(path string) (*TermList, error) {
	// If file doesn't exist, return empty list
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &TermList{terms: map[string][]string{}}, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	terms := make(map[string][]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		category, term, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		category = strings.TrimSpace(category)
		term = strings.TrimSpace(term)
		if category == "" || term == "" {
			continue
		}
		terms[category] = append(terms[category], term)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &TermList{terms: terms}, nil
}

// Terms returns the override terms for a category, or fallback when none are set
func (t *TermList) Terms(category string, fallback []string) []string {
	if t == nil {
		return fallback
	}
	if terms, ok := t.terms[category]; ok && len(terms) > 0 {
		return terms
	}
	return fallback
}
