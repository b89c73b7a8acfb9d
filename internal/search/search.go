// Package search finds and replaces text in an editor buffer.
//
// The Engine keeps a match set over one buffer and a cyclic pointer into
// it. Two matching modes exist:
//
//   - Literal: the query is located starting one character past the start
//     of the previous hit, so overlapping occurrences are all reported
//     ("aaa" / "aa" yields two matches). Case folding uses Unicode collation
//     from golang.org/x/text/search.
//   - Regex: the pattern is compiled in multi-line mode and matched with the
//     regexp package's non-overlapping advance.
//
// Offsets and lengths are byte positions in the buffer.
package search

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	textsearch "golang.org/x/text/search"

	"github.com/dollspace-gay/AuroraHeart/internal/errs"
)

// Options controls how a query is matched.
type Options struct {
	CaseSensitive bool
	UseRegex      bool
}

// Match is one occurrence of the query.
type Match struct {
	Offset int
	Length int
}

// End returns the byte offset just past the match.
func (m Match) End() int {
	return m.Offset + m.Length
}

// Find returns every match of query in content. An empty query matches
// nothing. An invalid regex returns an ErrPattern error and no matches.
//
// Case-insensitive literal queries use root-locale collation that ignores
// case. It also ignores compatibility differences, so "fi" matches the
// ligature "ﬁ", and a match never ends inside a sequence of combining
// marks: "x" does not match the "x" of "x\u0301".
func Find(content, query string, opts Options) ([]Match, error) {
	if query == "" || content == "" {
		return nil, nil
	}
	if opts.UseRegex {
		re, err := Compile(query, opts)
		if err != nil {
			return nil, err
		}
		return findRegex(content, re), nil
	}
	return findLiteral(content, query, opts.CaseSensitive), nil
}

// Compile builds the regular expression used in regex mode.
func Compile(pattern string, opts Options) (*regexp.Regexp, error) {
	flags := "(?m)"
	if !opts.CaseSensitive {
		flags = "(?mi)"
	}

	re, err := regexp.Compile(flags + pattern)
	if err != nil {
		return nil, errs.Pattern(pattern, err)
	}
	return re, nil
}

// findRegex drops empty matches; they cannot be highlighted or replaced
// meaningfully.
func findRegex(content string, re *regexp.Regexp) []Match {
	var matches []Match
	for _, loc := range re.FindAllStringIndex(content, -1) {
		if loc[1] > loc[0] {
			matches = append(matches, Match{Offset: loc[0], Length: loc[1] - loc[0]})
		}
	}
	return matches
}

func findLiteral(content, query string, caseSensitive bool) []Match {
	index := func(s string) (int, int) {
		i := strings.Index(s, query)
		if i < 0 {
			return -1, -1
		}
		return i, i + len(query)
	}
	if !caseSensitive {
		// Offsets index content; the matched text may differ in length
		// from query.
		pat := textsearch.New(language.Und, textsearch.IgnoreCase).CompileString(query)
		index = func(s string) (int, int) {
			return pat.IndexString(s)
		}
	}

	var matches []Match
	pos := 0
	for pos < len(content) {
		start, end := index(content[pos:])
		if start < 0 {
			break
		}
		start += pos
		end += pos
		if end > start {
			matches = append(matches, Match{Offset: start, Length: end - start})
		}

		// Resume one character past the start of this hit.
		_, size := utf8.DecodeRuneInString(content[start:])
		pos = start + size
	}
	return matches
}
