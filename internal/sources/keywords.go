package sources

import (
	"regexp"
	"strings"
)

// keywordMatcher distinguishes short ASCII tokens from everything else so
// that "SK" matches "SK하이닉스" but not "task".
type keywordMatcher struct {
	substrings []string
	words      []*regexp.Regexp
}

func newKeywordMatcher(keywords []string) *keywordMatcher {
	m := &keywordMatcher{}
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		// Short ASCII tokens -> whole word match. \b is ASCII-only, so a
		// Hangul neighbour still counts as a boundary.
		if len(k) <= 3 && isASCII(k) {
			m.words = append(m.words, regexp.MustCompile(`\b`+regexp.QuoteMeta(k)+`\b`))
			continue
		}
		m.substrings = append(m.substrings, k)
	}
	if len(m.substrings) == 0 && len(m.words) == 0 {
		return nil
	}
	return m
}

func (m *keywordMatcher) match(text string) bool {
	text = strings.ToLower(text)
	for _, k := range m.substrings {
		if strings.Contains(text, k) {
			return true
		}
	}
	for _, re := range m.words {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
