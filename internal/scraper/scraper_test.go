package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/econbrief/internal/news"
	"github.com/deusflow/econbrief/internal/retry"
	"github.com/deusflow/econbrief/internal/timeparse"
)

const articleHTML = `<html><body>
<div class="empty"></div>
<div class="article-body">  한국은행이 기준금리를   3.5%로 동결했습니다.
무단전재 및 재배포 금지 </div>
<span class="date">입력 2024.05.01 오후 2:30</span>
</body></html>`

func doc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return d
}

func TestFirstMatchTakesFirstSelectorWithText(t *testing.T) {
	d := doc(t, articleHTML)

	text, ok := FirstMatch(d, []string{".missing", ".empty", ".article-body"})
	require.True(t, ok)
	assert.Equal(t, "한국은행이 기준금리를 3.5%로 동결했습니다.", text)

	_, ok = FirstMatch(d, []string{".missing", ".empty"})
	assert.False(t, ok)

	_, ok = FirstMatch(nil, []string{".article-body"})
	assert.False(t, ok)
}

func TestFirstTimeMatchPrefersAttribute(t *testing.T) {
	d := doc(t, `<span class="t" data-date-time="2024-05-01 14:30:00">3시간 전</span>`)
	ts, ok := FirstTimeMatch(d, []string{".t"})
	require.True(t, ok)
	assert.Equal(t, "2024-05-01 14:30:00", ts)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "가나다", truncateRunes("가나다라마", 3))
	assert.Equal(t, "가나다라마", truncateRunes("가나다라마", 0))
	assert.Equal(t, "ab", truncateRunes("ab", 5))
}

func TestFetcherSendsIdentityHeaders(t *testing.T) {
	var ua, lang atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua.Store(r.Header.Get("User-Agent"))
		lang.Store(r.Header.Get("Accept-Language"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewFetcher(ClientConfig{Timeout: time.Second, UserAgent: "econbrief-test", AcceptLanguage: "ko-KR"})
	body, err := f.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, "econbrief-test", ua.Load())
	assert.Equal(t, "ko-KR", lang.Load())
}

func TestFetcherRejectsNon2xx(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(ClientConfig{Timeout: time.Second, Retry: retry.RetryConfig{MaxAttempts: 3}})
	_, err := f.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStatus))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, int32(1), hits.Load(), "404 is not retried")
}

func TestFetcherRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewFetcher(ClientConfig{
		Timeout: time.Second,
		Retry:   retry.RetryConfig{MaxAttempts: 3, Delay: time.Millisecond},
	})
	body, err := f.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetcherPacesRequestsToSameHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	f := NewFetcher(ClientConfig{Timeout: time.Second, PolitenessDelay: 50 * time.Millisecond})
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := f.Get(context.Background(), srv.URL)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "hankyung.com", hostOf("https://www.Hankyung.com/article/1"))
	assert.Equal(t, "news.naver.com", hostOf("https://news.naver.com/main"))
}

func TestDetailFetcherExtractsContentAndTime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	loc := time.FixedZone("KST", 9*60*60)
	d := NewDetailFetcher(NewFetcher(ClientConfig{Timeout: time.Second}), timeparse.New(loc))
	c := news.Candidate{Title: "한국은행 기준금리 3.5% 동결 결정", URL: srv.URL + "/article/1", Source: "한국경제"}

	item, err := d.Fetch(context.Background(), c, DetailRules{
		ContentSelectors: []string{".article-body"},
		TimeSelectors:    []string{"time", ".date"},
		ContentCap:       10,
	})
	require.NoError(t, err)
	assert.Equal(t, "한국은행이 기준금리", item.Content)
	assert.Equal(t, time.Date(2024, 5, 1, 14, 30, 0, 0, loc), item.PublishedAt)
	assert.Equal(t, news.Category, item.Category)
	assert.Equal(t, "한국경제", item.Source)
}

func TestDetailFetcherFallsBackToTitleAndNow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>nothing here</p></body></html>`))
	}))
	defer srv.Close()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	n := timeparse.New(time.UTC).WithClock(func() time.Time { return now })
	d := NewDetailFetcher(NewFetcher(ClientConfig{Timeout: time.Second}), n)
	c := news.Candidate{Title: "원달러 환율 1,320원대 하락 마감", URL: srv.URL, Source: "매일경제"}

	item, err := d.Fetch(context.Background(), c, DetailRules{ContentSelectors: []string{".article_body"}, TimeSelectors: []string{".time"}})
	require.NoError(t, err)
	assert.Equal(t, c.Title, item.Content)
	assert.Equal(t, now, item.PublishedAt)
}

func TestDetailFetcherReportsFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewDetailFetcher(NewFetcher(ClientConfig{Timeout: time.Second}), nil)
	item, err := d.Fetch(context.Background(), news.Candidate{Title: "삼성전자 반도체 실적 개선 전망", URL: srv.URL}, DetailRules{})
	require.Error(t, err)
	assert.Nil(t, item)
	assert.True(t, errors.Is(err, ErrStatus))
}

func TestDetailFetcherRejectsShortTitle(t *testing.T) {
	d := NewDetailFetcher(NewFetcher(ClientConfig{}), nil)
	_, err := d.Fetch(context.Background(), news.Candidate{Title: "더보기", URL: "http://127.0.0.1:1"}, DetailRules{})
	assert.ErrorIs(t, err, ErrInvalidTitle)
}
