package utils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestExtractYear(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  *int
	}{
		{"full date", "2024-02-27", IntPtr(2024)},
		{"year number", 2024, IntPtr(2024)},
		{"nil", nil, nil},
		{"year string", "1999", IntPtr(1999)},
		{"month precision", "2021-10", IntPtr(2021)},
		{"timestamp", "2021-10-22T07:00:00Z", IntPtr(2021)},
		{"float from json", float64(1987), IntPtr(1987)},
		{"json number", json.Number("2003"), IntPtr(2003)},
		{"time value", time.Date(2010, 5, 1, 0, 0, 0, 0, time.UTC), IntPtr(2010)},
		{"empty string", "", nil},
		{"embedded", "Released in (2009) worldwide", IntPtr(2009)},
		{"garbage", "unknown", nil},
		{"zero", 0, nil},
		{"nil string pointer", (*string)(nil), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractYear(tt.input)
			if tt.want == nil {
				if got != nil {
					t.Errorf("ExtractYear(%v) = %d, want nil", tt.input, *got)
				}
				return
			}
			if got == nil || *got != *tt.want {
				t.Errorf("ExtractYear(%v) = %v, want %d", tt.input, got, *tt.want)
			}
		})
	}
}

func TestFoldTitle(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"The Matrix", "matrix"},
		{"  Amélie  ", "amelie"},
		{"Spider-Man: No Way", "spider man no way"},
		{"A", "a"},
		{"Pokémon", "pokemon"},
	}
	for _, tt := range tests {
		if got := FoldTitle(tt.input); got != tt.want {
			t.Errorf("FoldTitle(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTitleSimilarity(t *testing.T) {
	if s := TitleSimilarity("The Matrix", "matrix"); s != 1 {
		t.Errorf("expected identical folded titles to score 1, got %f", s)
	}
	close := TitleSimilarity("Dune", "Dune Part Two")
	far := TitleSimilarity("Dune", "Casablanca")
	if close <= far {
		t.Errorf("expected %f > %f", close, far)
	}
}

func TestRankMatches(t *testing.T) {
	titles := []string{"Dune", "Dune", "Dunes"}
	years := []*int{IntPtr(1984), IntPtr(2021), nil}

	ranked := RankMatches("Dune", IntPtr(2021), titles, years)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(ranked))
	}
	if ranked[0].Index != 1 || !ranked[0].YearMatch {
		t.Errorf("expected the 2021 Dune first, got index %d", ranked[0].Index)
	}
	if ranked[2].Index != 2 {
		t.Errorf("expected the weakest title last, got index %d", ranked[2].Index)
	}
}

func TestLoadTermList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "terms.txt")
	content := "# comment\nbook: dune\nbook: tolkien\n\npodcast: history\nbroken line\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write terms: %v", err)
	}

	list, err := LoadTermList(path)
	if err != nil {
		t.Fatalf("LoadTermList failed: %v", err)
	}

	books := list.Terms("book", []string{"fallback"})
	if len(books) != 2 || books[0] != "dune" || books[1] != "tolkien" {
		t.Errorf("unexpected book terms: %v", books)
	}
	if got := list.Terms("album", []string{"fallback"}); len(got) != 1 || got[0] != "fallback" {
		t.Errorf("expected fallback for album, got %v", got)
	}

	missing, err := LoadTermList(filepath.Join(dir, "missing.txt"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if got := missing.Terms("book", nil); got != nil {
		t.Errorf("expected nil terms, got %v", got)
	}
}
