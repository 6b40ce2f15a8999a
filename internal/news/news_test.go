package news

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(title, source string, at time.Time) NewsItem {
	return NewsItem{Title: title, Source: source, URL: "https://example.com/" + source, Content: title, PublishedAt: at, Category: Category}
}

func TestNewItemDefaultsContentToTitle(t *testing.T) {
	at := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	it, ok := NewItem(Candidate{Title: "  한국은행 기준금리 3.5% 동결 결정 ", URL: "u", Source: "한국경제"}, "   ", at)
	require.True(t, ok)
	assert.Equal(t, "한국은행 기준금리 3.5% 동결 결정", it.Title)
	assert.Equal(t, it.Title, it.Content)
	assert.Equal(t, Category, it.Category)
	assert.Equal(t, at, it.PublishedAt)
}

func TestNewItemRejectsShortTitles(t *testing.T) {
	_, ok := NewItem(Candidate{Title: "경제 뉴스 더보기"}, "x", time.Now())
	assert.False(t, ok)
	// exactly ten characters is still too short
	_, ok = NewItem(Candidate{Title: "가나다라마바사아자차"}, "x", time.Now())
	assert.False(t, ok)
	_, ok = NewItem(Candidate{Title: "가나다라마바사아자차카"}, "x", time.Now())
	assert.True(t, ok)
}

func TestDeduplicateKeepsFirstBySourceOrder(t *testing.T) {
	now := time.Now()
	in := []NewsItem{
		item("코스피 3일 연속 상승", "네이버뉴스", now),
		item("원달러 환율 1,320원대 하락", "네이버뉴스", now),
		item(" 코스피 3일 연속 상승 ", "한국경제", now.Add(time.Hour)),
		item("짧은 제목", "매일경제", now),
	}

	out, dropped := Deduplicate(in)
	require.Len(t, out, 2)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, "네이버뉴스", out[0].Source)
	assert.Equal(t, "코스피 3일 연속 상승", out[0].Title)
	assert.Equal(t, "원달러 환율 1,320원대 하락", out[1].Title)
}

func TestDeduplicateDoesNotCountInvalidTitles(t *testing.T) {
	now := time.Now()
	in := []NewsItem{
		item("짧은 제목", "네이버뉴스", now),
		item("   ", "한국경제", now),
		item("한국은행 기준금리 동결 결정", "매일경제", now),
	}

	out, dropped := Deduplicate(in)
	require.Len(t, out, 1)
	assert.Zero(t, dropped)
	assert.Equal(t, "매일경제", out[0].Source)
}

func TestDeduplicateProperty(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	titles := []string{
		"코스피 3일 연속 상승 마감",
		"한국은행 기준금리 동결 결정",
		"부동산 시장 거래량 증가세",
		"삼성전자 반도체 실적 개선",
	}
	for round := 0; round < 50; round++ {
		var in []NewsItem
		n := r.Intn(20)
		for i := 0; i < n; i++ {
			title := titles[r.Intn(len(titles))]
			if r.Intn(2) == 0 {
				title = " " + title + "  "
			}
			in = append(in, item(title, fmt.Sprintf("s%d", i), time.Now()))
		}

		out, dropped := Deduplicate(in)
		assert.Equal(t, len(in), len(out)+dropped)

		seen := map[string]bool{}
		for _, it := range out {
			key := strings.TrimSpace(it.Title)
			require.False(t, seen[key], "duplicate %q", key)
			seen[key] = true
		}
		// every kept item is the first occurrence of its title
		for _, it := range out {
			for _, orig := range in {
				if strings.TrimSpace(orig.Title) == strings.TrimSpace(it.Title) {
					assert.Equal(t, orig.Source, it.Source)
					break
				}
			}
		}
	}
}

func TestRankSortsNewestFirstAndTruncates(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	in := []NewsItem{
		item("가장 오래된 경제 기사입니다", "a", base.Add(-3*time.Hour)),
		item("가장 최근의 경제 기사입니다", "b", base),
		item("같은 시각의 첫번째 기사입니다", "c", base.Add(-time.Hour)),
		item("같은 시각의 두번째 기사입니다", "d", base.Add(-time.Hour)),
	}

	out := Rank(in, 3)
	require.Len(t, out, 3)
	assert.Equal(t, "b", out[0].Source)
	assert.Equal(t, "c", out[1].Source)
	assert.Equal(t, "d", out[2].Source)
	assert.Equal(t, "a", in[0].Source, "input must not be reordered")
}

func TestRankProperty(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for round := 0; round < 50; round++ {
		n := r.Intn(15)
		var in []NewsItem
		for i := 0; i < n; i++ {
			in = append(in, item(fmt.Sprintf("경제 기사 번호 %03d 입니다", i), "s", base.Add(time.Duration(r.Intn(5))*time.Hour)))
		}
		limit := 1 + r.Intn(10)
		out := Rank(in, limit)
		assert.Len(t, out, min(limit, n))
		for i := 1; i < len(out); i++ {
			assert.False(t, out[i].PublishedAt.After(out[i-1].PublishedAt))
		}
	}
}

func TestFallbackModes(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	basic := Fallback(FallbackBasic, now)
	require.Len(t, basic, 5)
	extended := Fallback(FallbackExtended, now)
	require.Len(t, extended, 8)

	for _, items := range [][]NewsItem{basic, extended} {
		for i, it := range items {
			assert.True(t, ValidTitle(it.Title))
			assert.NotEmpty(t, it.Content)
			assert.Equal(t, "한국경제", it.Source)
			if i > 0 {
				assert.True(t, it.PublishedAt.Before(items[i-1].PublishedAt), "timestamps must strictly decrease")
			}
		}
	}
	assert.Equal(t, now, extended[0].PublishedAt)
	assert.Equal(t, now.Add(-28*time.Hour), extended[7].PublishedAt)
	assert.Equal(t, basic, extended[:5])

	out, dropped := Deduplicate(extended)
	assert.Len(t, out, 8)
	assert.Zero(t, dropped)
}

func TestAggregateJSONCountAndEscaping(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	agg := NewAggregate([]NewsItem{item("삼성전자 & SK하이닉스 <실적> 발표", "한국경제", at)}, "요약", at, false)
	agg.Count = 99

	data, err := agg.Encode()
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, "삼성전자 & SK하이닉스 <실적> 발표")
	assert.NotContains(t, s, `\u`)
	assert.Contains(t, s, `"count": 1`)
	assert.Contains(t, s, `"lastUpdated": "2024-05-01T12:00:00Z"`)

	var back AggregateResult
	require.NoError(t, json.Unmarshal([]byte(strings.Replace(s, `"count": 1`, `"count": 7`, 1)), &back))
	assert.Equal(t, 1, back.Count)
	assert.Equal(t, "요약", back.Summary)
}

func TestAggregateEmptyNewsEncodesArray(t *testing.T) {
	data, err := json.Marshal(NewAggregate(nil, "", time.Now(), false))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"news":[]`)
	assert.Contains(t, string(data), `"count":0`)
	assert.NotContains(t, string(data), `"summary"`)
}
