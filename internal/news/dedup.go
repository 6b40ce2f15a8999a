package news

import "sort"

// Deduplicate keeps the first item for every normalized title and drops the
// rest, preserving first-occurrence order. Items must arrive in source
// priority order for the tie-break to be meaningful. It also returns the
// number of duplicates removed. Items with an unusable title are dropped
// without being counted.
func Deduplicate(items []NewsItem) ([]NewsItem, int) {
	seen := make(map[string]struct{}, len(items))
	out := make([]NewsItem, 0, len(items))
	dropped := 0

	for _, item := range items {
		title := NormalizeTitle(item.Title)
		if !ValidTitle(title) {
			continue
		}
		if _, dup := seen[title]; dup {
			dropped++
			continue
		}
		seen[title] = struct{}{}
		out = append(out, item)
	}

	return out, dropped
}

// Rank sorts items newest first and truncates to limit. Equal timestamps keep
// their input order. A non-positive limit disables truncation. The input
// slice is not modified.
func Rank(items []NewsItem, limit int) []NewsItem {
	out := make([]NewsItem, len(items))
	copy(out, items)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
