package utils

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var articles = []string{"the ", "a ", "an "}

// FoldTitle normalizes a title for comparison: strips diacritics, case-folds,
// drops punctuation, collapses whitespace and a leading English article.
func FoldTitle(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, title)
	if err != nil {
		stripped = title
	}
	folded := cases.Fold().String(stripped)

	var b strings.Builder
	lastSpace := true
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case !lastSpace:
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	out := strings.TrimSpace(b.String())
	for _, a := range articles {
		if strings.HasPrefix(out, a) && len(out) > len(a) {
			out = out[len(a):]
			break
		}
	}
	return out
}

// TitleSimilarity returns a score in [0,1], 1 meaning the folded titles are equal
func TitleSimilarity(a, b string) float64 {
	fa, fb := FoldTitle(a), FoldTitle(b)
	if fa == "" && fb == "" {
		return 1
	}
	longest := len([]rune(fa))
	if n := len([]rune(fb)); n > longest {
		longest = n
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(fa, fb)
	return 1 - float64(dist)/float64(longest)
}

// MatchCandidate is one upstream result scored against a wanted title/year
type MatchCandidate struct {
	Index     int
	Score     float64
	YearMatch bool
}

// RankMatches scores candidates against a title and optional year and sorts them:
// 1. Title similarity (higher first)
// 2. Year match (exact year wins ties)
// 3. Original upstream order
func RankMatches(title string, year *int, titles []string, years []*int) []MatchCandidate {
	ranked := make([]MatchCandidate, 0, len(titles))
	for i, t := range titles {
		c := MatchCandidate{Index: i, Score: TitleSimilarity(title, t)}
		if year != nil && i < len(years) && years[i] != nil && *years[i] == *year {
			c.YearMatch = true
		}
		ranked = append(ranked, c)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].YearMatch != ranked[j].YearMatch {
			return ranked[i].YearMatch
		}
		return ranked[i].Index < ranked[j].Index
	})

	return ranked
}
