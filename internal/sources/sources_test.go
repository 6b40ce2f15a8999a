package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/econbrief/internal/scraper"
	"github.com/deusflow/econbrief/internal/timeparse"
)

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func source(t *testing.T, id string) Source {
	t.Helper()
	for _, s := range DefaultSources() {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("no source %s", id)
	return Source{}
}

func TestDefaultSourcesPriorityOrder(t *testing.T) {
	var ids, names []string
	for _, s := range DefaultSources() {
		ids = append(ids, s.ID)
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"naver", "hankyung", "mk", "yna"}, ids)
	assert.Equal(t, []string{"네이버뉴스", "한국경제", "매일경제", "연합뉴스"}, names)
}

func TestExtractCandidatesHankyung(t *testing.T) {
	html := `<html><body>
	<a href="/article/2024050112345">코스피 3일 연속 상승, 2,500선 돌파</a>
	<a href="/article/2024050112345">코스피 3일 연속 상승, 2,500선 돌파</a>
	<a href="/article/202405019999">짧은 제목</a>
	<a href="/article/202405010001">아이돌 그룹 새 앨범 발매 소식 전해</a>
	<a href="/opinion/202405010002">삼성전자 반도체 실적 개선 전망 나와</a>
	<div class="news_list"><a href="https://www.hankyung.com/article/20240501777">SK하이닉스 HBM 공급 계약 체결 임박</a></div>
	</body></html>`

	got := ExtractCandidates(parse(t, html), "https://www.hankyung.com/economy", source(t, "hankyung"))
	require.Len(t, got, 2)
	assert.Equal(t, "코스피 3일 연속 상승, 2,500선 돌파", got[0].Title)
	assert.Equal(t, "https://www.hankyung.com/article/2024050112345", got[0].URL)
	assert.Equal(t, "한국경제", got[0].Source)
	assert.Equal(t, "https://www.hankyung.com/article/20240501777", got[1].URL)
}

func TestExtractCandidatesNaverRequiresEconomyTerm(t *testing.T) {
	html := `<div class="list_body">
	<a href="https://n.news.naver.com/mnews/article/015/0004">한국 경제 성장률 전망 하향 조정</a>
	<a href="https://n.news.naver.com/mnews/article/015/0005">프로야구 개막전 관중 기록 경신</a>
	</div>`
	got := ExtractCandidates(parse(t, html), "https://news.naver.com/main/main.naver", source(t, "naver"))
	require.Len(t, got, 1)
	assert.Equal(t, "한국 경제 성장률 전망 하향 조정", got[0].Title)
}

func TestExtractCandidatesMKNeedsNumericID(t *testing.T) {
	html := `<div class="news_list">
	<a href="/news/economy/11012345">원달러 환율 1,320원대 하락 마감</a>
	<a href="/news/economy/list">경제 뉴스 전체 목록 보기 페이지</a>
	</div>`
	got := ExtractCandidates(parse(t, html), "https://www.mk.co.kr/news/economy/", source(t, "mk"))
	require.Len(t, got, 1)
	assert.Equal(t, "https://www.mk.co.kr/news/economy/11012345", got[0].URL)
}

func TestExtractCandidatesPerSelectorCap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteString(`<a href="/view/AKR`)
		b.WriteString(strings.Repeat("1", i+1))
		b.WriteString(`">연합뉴스 경제 기사 제목입니다 번호</a>`)
	}
	src := source(t, "yna")
	src.PerSelectorCap = 7
	src.LinkSelectors = []string{`a[href*="/view/"]`}
	got := ExtractCandidates(parse(t, b.String()), "https://www.yna.co.kr/economy", src)
	assert.Len(t, got, 7)
}

func TestRelevanceShortTokens(t *testing.T) {
	m := newKeywordMatcher([]string{"SK", "GDP"})
	assert.True(t, m.match("SK하이닉스 3분기 실적 발표"))
	assert.True(t, m.match("올해 gdp 성장률 2%"))
	assert.False(t, m.match("task force meeting"))

	src := Source{ID: "x", Name: "x", Listings: []string{"https://x.test/"}}
	require.NoError(t, src.Compile())
	assert.True(t, src.Relevant("anything at all"), "empty keyword set fails open")
}

func TestListingURLsArchive(t *testing.T) {
	src := source(t, "hankyung")
	assert.Len(t, src.ListingURLs(time.Time{}), len(src.Listings))

	urls := src.ListingURLs(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	require.Len(t, urls, 2*len(src.Listings))
	assert.Equal(t, "https://www.hankyung.com/economy?date=20240501", urls[len(src.Listings)])

	mk := source(t, "mk")
	assert.Len(t, mk.ListingURLs(time.Now()), 1)
}

func TestLoadSources(t *testing.T) {
	srcs, err := LoadSources(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Len(t, srcs, 4)

	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sources:
  - id: test
    name: 테스트경제
    listings: ["https://example.com/economy"]
    link_selectors: ["a"]
    article_pattern: "/news/\\d+"
    keywords: ["경제"]
    max_items: 2
    content_selectors: [".body"]
    time_selectors: [".date"]
    content_cap: 100
`), 0o644))
	srcs, err = LoadSources(path)
	require.NoError(t, err)
	require.Len(t, srcs, 1)
	assert.True(t, srcs[0].IsArticle("/news/12"))
	assert.Equal(t, DefaultPerSelectorCap, srcs[0].PerSelectorCap)
	assert.Equal(t, 100, srcs[0].Rules().ContentCap)

	require.NoError(t, os.WriteFile(path, []byte("sources:\n  - id: bad\n    name: bad\n"), 0o644))
	_, err = LoadSources(path)
	assert.Error(t, err)
}

func TestFeedCandidates(t *testing.T) {
	rss := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>경제</title>
<item><title>한국은행 기준금리 3.5% 동결 결정</title><link>https://www.yna.co.kr/view/AKR1</link></item>
<item><title>짧은 기사</title><link>https://www.yna.co.kr/view/AKR2</link></item>
<item><title>한국은행 기준금리 3.5% 동결 결정</title><link>https://www.yna.co.kr/view/AKR1</link></item>
</channel></rss>`
	got, err := FeedCandidates([]byte(rss), source(t, "yna"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "연합뉴스", got[0].Source)

	_, err = FeedCandidates([]byte("not a feed"), source(t, "yna"))
	assert.Error(t, err)
}

func TestCollectorSkipsFailuresAndCapsItems(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/economy", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
		<a href="/article/1">코스피 3일 연속 상승 마감했다</a>
		<a href="/article/2">한국은행 기준금리 동결 결정했다</a>
		<a href="/article/3">부동산 시장 거래량 증가세 지속</a>
		<a href="/article/4">삼성전자 반도체 실적 개선 전망</a>
		</body></html>`))
	})
	mux.HandleFunc("/article/1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<div class="body">코스피가 상승했습니다.</div><span class="date">2024-05-01 10:00</span>`))
	})
	mux.HandleFunc("/article/2", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	mux.HandleFunc("/article/3", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<p>본문 없음</p>`))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	good := Source{
		ID: "good", Name: "좋은경제", Listings: []string{srv.URL + "/economy"},
		LinkSelectors: []string{"a"}, ArticlePattern: "/article/", MaxItems: 3,
		ContentSelectors: []string{".body"}, TimeSelectors: []string{".date"},
	}
	broken := Source{ID: "broken", Name: "고장난경제", Listings: []string{srv.URL + "/broken"}, ArticlePattern: "/article/"}
	require.NoError(t, good.Compile())
	require.NoError(t, broken.Compile())

	f := scraper.NewFetcher(scraper.ClientConfig{Timeout: time.Second})
	d := scraper.NewDetailFetcher(f, timeparse.New(time.UTC))
	c := NewCollector(f, d, []Source{broken, good})

	items, reports := c.Collect(context.Background(), Options{})
	require.Len(t, reports, 2)
	assert.Equal(t, 1, reports[0].Failures)
	assert.Zero(t, reports[0].Items)

	assert.Equal(t, 3, reports[1].Candidates)
	assert.Equal(t, 1, reports[1].Failures)
	require.Len(t, items, 2)
	assert.Equal(t, "코스피가 상승했습니다.", items[0].Content)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), items[0].PublishedAt)
	assert.Equal(t, items[1].Title, items[1].Content)
	assert.Equal(t, "좋은경제", items[1].Source)
}

func TestCollectorUsesFeedFirst(t *testing.T) {
	var listingHit bool
	mux := http.NewServeMux()
	mux.HandleFunc("/rss.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>t</title>
<item><title>수출 증가세 6개월째 이어져 무역수지 흑자</title><link>` + "http://" + r.Host + `/view/1</link></item>
</channel></rss>`))
	})
	mux.HandleFunc("/list", func(w http.ResponseWriter, r *http.Request) { listingHit = true })
	mux.HandleFunc("/view/1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<div class="story-news">수출이 늘었습니다.</div>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src := Source{
		ID: "feed", Name: "피드경제", Listings: []string{srv.URL + "/list"}, Feed: srv.URL + "/rss.xml",
		ArticlePattern: "/view/", ContentSelectors: []string{".story-news"},
	}
	require.NoError(t, src.Compile())

	f := scraper.NewFetcher(scraper.ClientConfig{Timeout: time.Second})
	c := NewCollector(f, scraper.NewDetailFetcher(f, nil), []Source{src})
	items, _ := c.Collect(context.Background(), Options{})
	require.Len(t, items, 1)
	assert.Equal(t, "수출이 늘었습니다.", items[0].Content)
	assert.False(t, listingHit)
}
