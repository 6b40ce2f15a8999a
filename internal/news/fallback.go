package news

import (
	"fmt"
	"time"
)

// FallbackMode selects which substitute record set is produced.
type FallbackMode string

const (
	FallbackBasic    FallbackMode = "basic"
	FallbackExtended FallbackMode = "extended"
)

// ParseFallbackMode maps a config value to a FallbackMode.
func ParseFallbackMode(s string) (FallbackMode, error) {
	switch FallbackMode(s) {
	case FallbackBasic, FallbackExtended:
		return FallbackMode(s), nil
	}
	return "", fmt.Errorf("unknown fallback mode %q", s)
}

const (
	fallbackSource = "한국경제"
	fallbackURL    = "https://www.hankyung.com/economy"
)

type fallbackEntry struct {
	title   string
	content string
	age     time.Duration
}

// Ages strictly increase so timestamps strictly decrease. The last three
// entries belong to the previous day.
var fallbackEntries = []fallbackEntry{
	{
		title:   "코스피 3일 연속 상승, 2,500선 돌파",
		content: "코스피가 3일 연속 상승세를 이어가며 2,500선을 돌파했습니다. 외국인 투자자들의 순매수세가 지속되면서 상승 모멘텀이 강화되고 있습니다.",
		age:     0,
	},
	{
		title:   "한국은행 기준금리 3.5% 동결 결정",
		content: "한국은행이 금융통화위원회를 통해 기준금리를 3.5%로 동결하기로 결정했습니다. 인플레이션 안정화와 경제 성장의 균형을 고려한 결정으로 평가됩니다.",
		age:     2 * time.Hour,
	},
	{
		title:   "원달러 환율 1,320원대 하락",
		content: "원달러 환율이 1,320원대까지 하락했습니다. 미 연준의 금리 인하 기대감과 달러 약세가 원화 강세를 이끌고 있습니다.",
		age:     4 * time.Hour,
	},
	{
		title:   "삼성전자 주가 5% 상승, 반도체 회복 기대감",
		content: "삼성전자 주가가 5% 상승했습니다. 반도체 업황 회복 기대감과 AI 관련 수요 증가가 주가 상승을 이끌고 있습니다.",
		age:     6 * time.Hour,
	},
	{
		title:   "부동산 시장 거래량 증가세 지속",
		content: "부동산 시장에서 거래량이 증가세를 보이고 있습니다. 정부의 규제 완화 정책과 금리 안정화가 시장 활성화에 기여하고 있습니다.",
		age:     8 * time.Hour,
	},
	{
		title:   "어제: 정부, 2025년 예산안 656조원 편성",
		content: "정부가 2025년 예산안을 656조원으로 편성했습니다. 사회보장비와 국방비를 중심으로 예산이 증가했으며, 재정 건전성 확보에 중점을 두었습니다.",
		age:     24 * time.Hour,
	},
	{
		title:   "어제: SK하이닉스, 3분기 영업이익 1조원 돌파",
		content: "SK하이닉스가 3분기 영업이익 1조원을 돌파했습니다. 메모리 반도체 업황 회복과 AI 관련 수요 증가가 실적 개선을 이끌었습니다.",
		age:     26 * time.Hour,
	},
	{
		title:   "어제: 중국 경제지표 개선, 아시아 증시 상승",
		content: "중국의 경제지표가 개선되면서 아시아 증시가 상승했습니다. 중국의 제조업 PMI가 3개월 만에 확장 구간으로 돌아서며 긍정적 신호를 보였습니다.",
		age:     28 * time.Hour,
	},
}

const basicFallbackSize = 5

// Fallback returns the fixed substitute item set for mode, timestamped
// relative to now. Basic mode yields today's five items; extended mode adds
// three from the previous day.
func Fallback(mode FallbackMode, now time.Time) []NewsItem {
	entries := fallbackEntries
	if mode != FallbackExtended {
		entries = entries[:basicFallbackSize]
	}

	items := make([]NewsItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, NewsItem{
			Title:       e.title,
			URL:         fallbackURL,
			Source:      fallbackSource,
			Content:     e.content,
			PublishedAt: now.Add(-e.age),
			Category:    Category,
		})
	}
	return items
}
