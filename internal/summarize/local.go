package summarize

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/deusflow/econbrief/internal/news"
)

const (
	NoNewsDigest = "오늘의 경제 이슈를 불러올 수 없습니다."

	digestTopCategories = 3
	digestListed        = 5
	digestTitleMax      = 60
	glossTitleMax       = 50
)

type topic struct {
	name     string
	triggers []string
}

// taxonomy order is also the tie-break order for the digest.
var taxonomy = []topic{
	{"주식시장", []string{"주가", "코스피", "코스닥", "증시", "주식", "투자", "증권", "ETF", "펀드"}},
	{"부동산", []string{"부동산", "아파트", "주택", "매매", "임대", "전세", "월세", "재개발", "재건축"}},
	{"금리정책", []string{"금리", "중앙은행", "한국은행", "기준금리", "인플레이션", "물가"}},
	{"경기동향", []string{"경기", "성장", "GDP", "경제", "회복", "부진", "호황", "침체"}},
	{"국제정치", []string{"APEC", "정상회의", "미국", "중국", "일본", "외교", "무역"}},
	{"기업", []string{"삼성", "LG", "SK", "현대", "기업", "매출", "수익", "실적"}},
	{"고용", []string{"고용", "취업", "실업", "구직", "채용", "노동"}},
}

// Local is the keyword-taxonomy summarizer. It does no I/O and is
// deterministic.
type Local struct{}

func NewLocal() *Local { return &Local{} }

func (*Local) Name() string { return "local" }

// Categories returns the taxonomy categories text mentions, in taxonomy order.
func Categories(text string) []string {
	text = strings.ToLower(text)
	var found []string
	for _, t := range taxonomy {
		for _, trigger := range t.triggers {
			if strings.Contains(text, strings.ToLower(trigger)) {
				found = append(found, t.name)
				break
			}
		}
	}
	return found
}

// Item emits one canned sentence per matched category, or a shortened title
// when nothing matches.
func (*Local) Item(_ context.Context, item news.NewsItem) string {
	title := item.Title
	var parts []string
	for _, cat := range Categories(title + " " + item.Content) {
		parts = append(parts, gloss(cat, title))
	}
	if len(parts) == 0 {
		return truncateTitle(title, glossTitleMax)
	}
	return strings.Join(parts, " ")
}

func gloss(category, title string) string {
	has := func(terms ...string) bool {
		for _, t := range terms {
			if strings.Contains(title, t) {
				return true
			}
		}
		return false
	}
	switch category {
	case "주식시장":
		if has("코스피", "증시") {
			return "주식시장이 상승세를 보이고 있습니다."
		}
		return "주식시장 관련 뉴스가 주목받고 있습니다."
	case "부동산":
		if has("정책", "공급") {
			return "부동산 정책 관련 발표가 있었습니다."
		}
		return "부동산 시장 동향이 관심을 끌고 있습니다."
	case "금리정책":
		return "금리 정책 관련 소식이 전해졌습니다."
	case "경기동향":
		if has("회복", "성장") {
			return "경기 회복 신호가 나타나고 있습니다."
		}
		return "경제 동향에 대한 관심이 높아지고 있습니다."
	case "국제정치":
		return "국제 정치 경제 이슈가 주목받고 있습니다."
	case "기업":
		if has("실적", "매출") {
			return "기업 실적 발표가 이어지고 있습니다."
		}
		return "주요 기업 관련 소식이 전해졌습니다."
	case "고용":
		return "고용 시장 동향이 주목받고 있습니다."
	}
	return ""
}

// Digest ranks categories by how many items mention them and lists the first
// few titles.
func (*Local) Digest(_ context.Context, items []news.NewsItem) string {
	if len(items) == 0 {
		return NoNewsDigest
	}

	counts := make(map[string]int)
	for _, it := range items {
		for _, cat := range Categories(it.Title + " " + it.Content) {
			counts[cat]++
		}
	}
	top := topCategories(counts, digestTopCategories)

	var lines []string
	if len(top) > 0 {
		lines = append(lines,
			"📈 **오늘의 주요 경제 이슈**",
			"",
			"주요 관심사: "+strings.Join(top, ", "),
			"",
		)
	}
	lines = append(lines, "**주요 뉴스:**")
	for i, it := range items {
		if i == digestListed {
			break
		}
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, truncateTitle(it.Title, digestTitleMax)))
	}
	return strings.Join(lines, "\n")
}

func topCategories(counts map[string]int, n int) []string {
	var names []string
	for _, t := range taxonomy {
		if counts[t.name] > 0 {
			names = append(names, t.name)
		}
	}
	sort.SliceStable(names, func(i, j int) bool {
		return counts[names[i]] > counts[names[j]]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

func truncateTitle(title string, max int) string {
	if utf8.RuneCountInString(title) <= max {
		return title
	}
	return string([]rune(title)[:max]) + "..."
}
