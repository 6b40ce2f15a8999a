package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/deusflow/econbrief/internal/llm"
	"github.com/deusflow/econbrief/internal/logger"
)

const (
	askSystemPrompt = "당신은 경제 상식 전문가입니다. 사용자의 질문에 정확하고 도움이 되는 답변을 제공해주세요."

	askPromptTemplate = "다음은 경제 상식에 대한 질문과 관련 정보입니다.\n\n" +
		"질문: %s\n\n관련 정보:\n%s\n\n" +
		"위 정보를 바탕으로 질문에 대한 정확하고 도움이 되는 답변을 작성해주세요.\n" +
		"답변은 300-500자 정도로 간결하게 작성하고, 구체적인 정보와 실용적인 조언을 포함해주세요."

	// NoMatchAnswer is returned when nothing in the base relates to the question.
	NoMatchAnswer = "죄송합니다. 관련 정보를 찾을 수 없습니다. 다른 질문을 해주세요."
	// FailedAnswer is returned when the model call fails.
	FailedAnswer = "죄송합니다. 답변을 생성하는 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요."

	askTopK      = 3
	askMaxTokens = 500
)

// Answer is the result of one question.
type Answer struct {
	Question string
	Answer   string
	Related  []Item
}

// Answerer grounds model answers in the knowledge base.
type Answerer struct {
	base *Base
	gen  llm.Generator
}

// NewAnswerer builds an Answerer. A nil gen answers every matched question
// with FailedAnswer.
func NewAnswerer(base *Base, gen llm.Generator) *Answerer {
	return &Answerer{base: base, gen: gen}
}

// Ask searches the base and asks the model to answer from the top matches.
// Only a blank question is an error; model trouble becomes FailedAnswer.
func (a *Answerer) Ask(ctx context.Context, question string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, ErrEmptyQuery
	}

	related := a.base.Search(question, askTopK)
	ans := Answer{Question: question, Related: related}
	if len(related) == 0 {
		ans.Answer = NoMatchAnswer
		return ans, nil
	}
	if a.gen == nil {
		ans.Answer = FailedAnswer
		return ans, nil
	}

	blocks := make([]string, len(related))
	for i, it := range related {
		blocks[i] = fmt.Sprintf("제목: %s\n내용: %s", it.Title, it.Content)
	}

	out, err := a.gen.Generate(ctx, llm.Request{
		System:      askSystemPrompt,
		Prompt:      fmt.Sprintf(askPromptTemplate, question, strings.Join(blocks, "\n\n")),
		MaxTokens:   askMaxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		logger.Warn("answer generation failed", "error", err)
		ans.Answer = FailedAnswer
		return ans, nil
	}
	ans.Answer = out
	return ans, nil
}
