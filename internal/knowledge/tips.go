package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/deusflow/econbrief/internal/llm"
	"github.com/deusflow/econbrief/internal/logger"
)

// TipsKey is the storage key of the tips aggregate.
const TipsKey = "finance-tips"

const (
	tipSystemPrompt   = "당신은 금융 전문가입니다. 일반인이 이해하기 쉽게 금융상품을 설명해주세요."
	tipPromptTemplate = "다음 금융상품에 대해 300-400자로 설명해주세요. \n" +
		"일반인이 이해하기 쉽게 작성하고, 핵심 특징과 장단점을 포함해주세요.\n\n" +
		"카테고리: %s\n제목: %s\n관련 키워드: %s\n\n설명:"
	tipMaxTokens = 500
)

// TipTopic is one finance product the tips job explains.
type TipTopic struct {
	Category string
	Title    string
	Keywords []string
}

// TipTopics is the fixed list of explained products, in output order.
var TipTopics = []TipTopic{
	{"연금저축", "연금저축이란?", []string{"연금저축", "개인연금", "퇴직연금", "IRP", "연금보험"}},
	{"주식", "주식 투자 기초", []string{"주식", "주식투자", "증권", "코스피", "코스닥", "ETF"}},
	{"ISA", "ISA (개인종합자산관리계좌)", []string{"ISA", "개인종합자산관리계좌", "세제혜택", "투자계좌"}},
	{"ETF", "ETF (상장지수펀드)", []string{"ETF", "상장지수펀드", "인덱스펀드", "패시브투자"}},
	{"채권", "채권 투자", []string{"채권", "국채", "회사채", "채권펀드", "안전자산"}},
	{"펀드", "펀드 투자", []string{"펀드", "투자신탁", "자산운용", "액티브펀드", "패시브펀드"}},
	{"예적금", "예금과 적금", []string{"예금", "적금", "정기예금", "정기적금", "자유적금"}},
	{"보험", "보험 상품", []string{"보험", "생명보험", "손해보험", "연금보험", "종신보험"}},
	{"부동산", "부동산 투자", []string{"부동산", "아파트", "오피스텔", "REITs", "부동산펀드"}},
	{"암호화폐", "암호화폐 투자", []string{"암호화폐", "비트코인", "이더리움", "가상화폐", "블록체인"}},
}

type Tip struct {
	ID        int       `json:"id"`
	Category  string    `json:"category"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Keywords  []string  `json:"keywords"`
	CreatedAt time.Time `json:"createdAt"`
}

// TipsAggregate is what the tips job persists.
type TipsAggregate struct {
	LastUpdated time.Time `json:"lastUpdated"`
	Tips        []Tip     `json:"tips"`
	Count       int       `json:"count"`
}

type tipsJSON TipsAggregate

// MarshalJSON keeps count equal to len(tips) and leaves HTML characters
// unescaped.
func (t TipsAggregate) MarshalJSON() ([]byte, error) {
	t.Count = len(t.Tips)
	if t.Tips == nil {
		t.Tips = []Tip{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tipsJSON(t)); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnavailableTip is the content of a tip whose generation failed.
func UnavailableTip(title string) string {
	return fmt.Sprintf("%s에 대한 설명을 생성할 수 없습니다.", title)
}

// TipsGenerator asks the model to explain every TipTopic.
type TipsGenerator struct {
	gen   llm.Generator
	pacer *rate.Limiter
	now   func() time.Time
}

// NewTipsGenerator paces model calls at least pacing apart.
func NewTipsGenerator(gen llm.Generator, pacing time.Duration) *TipsGenerator {
	g := &TipsGenerator{gen: gen, now: time.Now}
	if pacing > 0 {
		g.pacer = rate.NewLimiter(rate.Every(pacing), 1)
	}
	return g
}

// Generate produces one tip per topic. A failed call yields the placeholder
// text for that topic and the job carries on.
func (g *TipsGenerator) Generate(ctx context.Context) (*TipsAggregate, error) {
	tips := make([]Tip, 0, len(TipTopics))
	for i, topic := range TipTopics {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := g.explain(ctx, topic)
		if err != nil {
			logger.Warn("tip generation failed", "category", topic.Category, "error", err)
			content = UnavailableTip(topic.Title)
		}
		tips = append(tips, Tip{
			ID:        i + 1,
			Category:  topic.Category,
			Title:     topic.Title,
			Content:   content,
			Keywords:  append([]string(nil), topic.Keywords...),
			CreatedAt: g.now(),
		})
	}
	return &TipsAggregate{LastUpdated: g.now(), Tips: tips, Count: len(tips)}, nil
}

func (g *TipsGenerator) explain(ctx context.Context, topic TipTopic) (string, error) {
	if g.pacer != nil {
		if err := g.pacer.Wait(ctx); err != nil {
			return "", err
		}
	}
	return g.gen.Generate(ctx, llm.Request{
		System:      tipSystemPrompt,
		Prompt:      fmt.Sprintf(tipPromptTemplate, topic.Category, topic.Title, strings.Join(topic.Keywords, ", ")),
		MaxTokens:   tipMaxTokens,
		Temperature: 0.3,
	})
}
