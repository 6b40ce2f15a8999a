package sources

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/deusflow/econbrief/internal/news"
	"github.com/deusflow/econbrief/internal/scraper"
)

// ExtractCandidates pulls article references out of a listing page. Links are
// accepted when their href looks like an article, their text is long enough
// to be a headline and the title passes the relevance filter. Relative hrefs
// are resolved against baseURL and repeated URLs are dropped.
func ExtractCandidates(doc scraper.Finder, baseURL string, src Source) []news.Candidate {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}
	seen := make(map[string]struct{})
	return appendCandidates(nil, seen, doc, base, src)
}

func appendCandidates(out []news.Candidate, seen map[string]struct{}, doc scraper.Finder, base *url.URL, src Source) []news.Candidate {
	if doc == nil {
		return out
	}
	limit := src.PerSelectorCap
	if limit <= 0 {
		limit = DefaultPerSelectorCap
	}

	for _, sel := range src.LinkSelectors {
		doc.Find(sel).EachWithBreak(func(i int, a *goquery.Selection) bool {
			if i >= limit {
				return false
			}
			href, ok := a.Attr("href")
			if !ok || !src.IsArticle(href) {
				return true
			}
			title := strings.Join(strings.Fields(a.Text()), " ")
			if !news.ValidTitle(title) || !src.Relevant(title) {
				return true
			}
			abs := resolve(base, href)
			if abs == "" {
				return true
			}
			if _, dup := seen[abs]; dup {
				return true
			}
			seen[abs] = struct{}{}
			out = append(out, news.Candidate{Title: title, URL: abs, Source: src.Name})
			return true
		})
	}
	return out
}

// FeedCandidates reads an RSS or Atom document. Feed entries are articles by
// definition, so only the title checks apply.
func FeedCandidates(body []byte, src Source) ([]news.Candidate, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []news.Candidate
	for _, it := range feed.Items {
		if it == nil || it.Link == "" {
			continue
		}
		title := strings.Join(strings.Fields(it.Title), " ")
		if !news.ValidTitle(title) || !src.Relevant(title) {
			continue
		}
		if _, dup := seen[it.Link]; dup {
			continue
		}
		seen[it.Link] = struct{}{}
		out = append(out, news.Candidate{Title: title, URL: it.Link, Source: src.Name})
	}
	return out, nil
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	u := base.ResolveReference(ref)
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Fragment = ""
	return u.String()
}
