// Package sources holds the per-site strategy table and turns listing pages
// into article candidates.
package sources

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/deusflow/econbrief/internal/scraper"
)

// DefaultPerSelectorCap bounds how many matches of one link selector are
// inspected when a source does not set its own cap.
const DefaultPerSelectorCap = 20

// Source describes how to collect articles from one site. Every site is the
// same algorithm driven by different selectors and filters.
type Source struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Listings []string `yaml:"listings"`
	// Feed is an optional RSS/Atom URL tried before the HTML listings.
	Feed string `yaml:"feed,omitempty"`
	// Archive marks listings that accept a ?date=YYYYMMDD query.
	Archive bool `yaml:"archive,omitempty"`

	LinkSelectors []string `yaml:"link_selectors"`
	// ArticlePattern is a regexp an href must match to count as an article.
	ArticlePattern string `yaml:"article_pattern"`
	// Keywords is the relevance set; a title must contain one of them.
	// An empty set lets every candidate through.
	Keywords       []string `yaml:"keywords,omitempty"`
	PerSelectorCap int      `yaml:"per_selector_cap,omitempty"`
	MaxItems       int      `yaml:"max_items"`

	ContentSelectors []string `yaml:"content_selectors"`
	TimeSelectors    []string `yaml:"time_selectors"`
	ContentCap       int      `yaml:"content_cap"`

	article  *regexp.Regexp
	keywords *keywordMatcher
}

// SourcesConfig is the YAML layout of the sources file:
//
//	sources:
//	  - id: naver
//	    name: 네이버뉴스
//	    ...
type SourcesConfig struct {
	Sources []Source `yaml:"sources"`
}

// LoadSources reads the strategy table from path. A missing file yields the
// built-in table.
func LoadSources(path string) ([]Source, error) {
	if path == "" {
		return DefaultSources(), nil
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultSources(), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg SourcesConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", path, err)
	}
	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("%s defines no sources", path)
	}
	for i := range cfg.Sources {
		if err := cfg.Sources[i].Compile(); err != nil {
			return nil, err
		}
	}
	return cfg.Sources, nil
}

// Compile validates s and prepares its matchers. It must be called before a
// Source loaded from outside this package is used.
func (s *Source) Compile() error {
	if s.ID == "" || s.Name == "" {
		return errors.New("source needs an id and a name")
	}
	if len(s.Listings) == 0 && s.Feed == "" {
		return fmt.Errorf("source %s has neither listings nor a feed", s.ID)
	}
	for _, l := range s.Listings {
		if u, err := url.Parse(l); err != nil || !u.IsAbs() {
			return fmt.Errorf("source %s: listing %q is not an absolute URL", s.ID, l)
		}
	}
	re, err := regexp.Compile(s.ArticlePattern)
	if err != nil {
		return fmt.Errorf("source %s: bad article pattern: %w", s.ID, err)
	}
	s.article = re
	s.keywords = newKeywordMatcher(s.Keywords)
	if s.PerSelectorCap <= 0 {
		s.PerSelectorCap = DefaultPerSelectorCap
	}
	return nil
}

// Rules returns the detail-page rules for s.
func (s Source) Rules() scraper.DetailRules {
	return scraper.DetailRules{
		ContentSelectors: s.ContentSelectors,
		TimeSelectors:    s.TimeSelectors,
		ContentCap:       s.ContentCap,
	}
}

// ListingURLs returns the listing pages to crawl. A non-zero archiveDate adds
// a dated copy of every listing for archive-capable sources.
func (s Source) ListingURLs(archiveDate time.Time) []string {
	out := append([]string(nil), s.Listings...)
	if !s.Archive || archiveDate.IsZero() {
		return out
	}
	date := archiveDate.Format("20060102")
	for _, l := range s.Listings {
		u, err := url.Parse(l)
		if err != nil {
			continue
		}
		q := u.Query()
		q.Set("date", date)
		u.RawQuery = q.Encode()
		out = append(out, u.String())
	}
	return out
}

// IsArticle reports whether href points at an article page.
func (s Source) IsArticle(href string) bool {
	if s.article == nil {
		return false
	}
	return s.article.MatchString(href)
}

// Relevant applies the keyword filter to a title.
func (s Source) Relevant(title string) bool {
	if s.keywords == nil {
		return true
	}
	return s.keywords.match(title)
}

// economyKeywords is the relevance set for sections that mix economy news
// with everything else.
var economyKeywords = []string{
	"경제", "금리", "주가", "환율", "부동산", "투자", "금융", "은행",
	"증권", "펀드", "채권", "코스피", "코스닥", "증시", "시장",
	"기업", "매출", "수익", "성장", "인플레이션", "물가", "고용",
	"정부", "정책", "세금", "예산", "국채", "통화", "중앙은행",
	"GDP", "경기", "회복", "부진", "호황", "침체", "실업",
	"삼성", "LG", "SK", "현대", "기아", "포스코", "KT", "SKT",
	"APEC", "정상회의", "미국", "중국", "일본", "외교", "무역",
	"원달러", "원화", "달러", "엔화", "유로", "위안",
}

// DefaultSources returns the built-in strategy table in priority order.
// Earlier sources win title ties during deduplication.
func DefaultSources() []Source {
	srcs := []Source{
		{
			ID:       "naver",
			Name:     "네이버뉴스",
			Listings: []string{"https://news.naver.com/main/main.naver?mode=LSD&mid=shm&sid1=101"},
			LinkSelectors: []string{
				`a[href*="/read.naver?mode=LSD"]`,
				`a[href*="/article/"]`,
				".cluster_group a",
				".list_body a",
				".news_area a",
			},
			ArticlePattern: `/read\.naver|/article/`,
			Keywords:       []string{"경제"},
			PerSelectorCap: 10,
			MaxItems:       5,
			ContentSelectors: []string{
				"#newsct_article", ".news_end_body", ".article_body", ".news_body", ".article_view",
			},
			TimeSelectors: []string{
				".media_end_head_info_datestamp_time", ".t11", ".author em", ".info_group .t11", ".press_logo .t11",
			},
			ContentCap: 500,
		},
		{
			ID:   "hankyung",
			Name: "한국경제",
			Listings: []string{
				"https://www.hankyung.com/economy",
				"https://www.hankyung.com/finance",
				"https://www.hankyung.com/stock",
				"https://www.hankyung.com/realestate",
				"https://www.hankyung.com/industry",
				"https://www.hankyung.com/global",
			},
			Archive: true,
			LinkSelectors: []string{
				`a[href*="/article/"]`,
				".news_list a",
				".list_news a",
				".article_list a",
				".news_item a",
				".headline a",
				".title a",
				".news_title a",
			},
			ArticlePattern: `/article/`,
			Keywords:       economyKeywords,
			PerSelectorCap: 15,
			MaxItems:       10,
			ContentSelectors: []string{
				".article-body", ".news-body", ".article_view", ".article-content",
				".news-content", ".article_text", ".news_text",
			},
			TimeSelectors: []string{
				"time", ".date", ".publish-time", ".article-date", ".news-date", ".byline",
			},
			ContentCap: 1500,
		},
		{
			ID:             "mk",
			Name:           "매일경제",
			Listings:       []string{"https://www.mk.co.kr/news/economy/"},
			LinkSelectors:  []string{`a[href*="/news/economy/"]`, ".news_list a", ".list_area a"},
			ArticlePattern: `/news/economy/\d+`,
			MaxItems:       5,
			ContentSelectors: []string{
				".news_cnt_detail_wrap", ".article_body", ".news_body",
			},
			TimeSelectors: []string{".time", ".date", ".publish-time", ".registration"},
			ContentCap:    500,
		},
		{
			ID:               "yna",
			Name:             "연합뉴스",
			Listings:         []string{"https://www.yna.co.kr/economy"},
			Feed:             "https://www.yna.co.kr/rss/economy.xml",
			LinkSelectors:    []string{`a[href*="/view/"]`, ".news-con a", ".list a"},
			ArticlePattern:   `/view/`,
			MaxItems:         3,
			ContentSelectors: []string{".story-news", ".article_body", ".news_body"},
			TimeSelectors:    []string{".publish-time", ".date", "time"},
			ContentCap:       500,
		},
	}
	for i := range srcs {
		if err := srcs[i].Compile(); err != nil {
			panic(err)
		}
	}
	return srcs
}
