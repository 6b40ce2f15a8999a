package scraper

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Finder is anything selectors can be run against: a *goquery.Document or
// a *goquery.Selection.
type Finder interface {
	Find(selector string) *goquery.Selection
}

// FirstMatch tries selectors in order and returns the cleaned text of the
// first element that has any.
func FirstMatch(root Finder, selectors []string) (string, bool) {
	return firstMatchWith(root, selectors, func(s *goquery.Selection) string {
		return cleanText(s.Text())
	})
}

// FirstTimeMatch is FirstMatch for timestamp elements. Machine-readable
// attributes win over the rendered text.
func FirstTimeMatch(root Finder, selectors []string) (string, bool) {
	return firstMatchWith(root, selectors, func(s *goquery.Selection) string {
		for _, attr := range timeAttrs {
			if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
		return collapseSpace(s.Text())
	})
}

var timeAttrs = []string{"datetime", "data-date-time", "data-published"}

func firstMatchWith(root Finder, selectors []string, extract func(*goquery.Selection) string) (string, bool) {
	if root == nil {
		return "", false
	}
	for _, sel := range selectors {
		var found string
		root.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			found = extract(s)
			return found == ""
		})
		if found != "" {
			return found, true
		}
	}
	return "", false
}

// Korean press boilerplate that trails article bodies.
var junkPhrases = []string{
	"무단전재 및 재배포 금지",
	"무단 전재 및 재배포 금지",
	"무단전재-재배포 금지",
	"무단전재 재배포 금지",
	"저작권자",
	"Copyright",
	"ⓒ",
	"©",
	"기사제보",
	"구독하기",
	"좋아요",
	"본문 바로가기",
}

// cleanText drops boilerplate and collapses whitespace.
func cleanText(s string) string {
	if s == "" {
		return ""
	}
	for _, phrase := range junkPhrases {
		s = strings.ReplaceAll(s, phrase, " ")
	}
	return collapseSpace(s)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateRunes cuts s to at most n characters. n <= 0 means no limit.
func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}
