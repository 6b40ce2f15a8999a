package news

import (
	"bytes"
	"encoding/json"
	"time"
)

// AggregateResult is the single output of one pipeline run.
type AggregateResult struct {
	LastUpdated time.Time  `json:"lastUpdated"`
	Summary     string     `json:"summary,omitempty"`
	News        []NewsItem `json:"news"`
	Count       int        `json:"count"`
	// Fallback is true when News came from the fallback set. Not persisted.
	Fallback bool `json:"-"`
}

// NewAggregate assembles a result from ranked items.
func NewAggregate(items []NewsItem, summary string, at time.Time, fallback bool) *AggregateResult {
	if items == nil {
		items = []NewsItem{}
	}
	return &AggregateResult{
		LastUpdated: at,
		Summary:     summary,
		News:        items,
		Count:       len(items),
		Fallback:    fallback,
	}
}

type aggregateJSON AggregateResult

// MarshalJSON recomputes count from news and leaves non-ASCII and HTML
// characters unescaped.
func (a AggregateResult) MarshalJSON() ([]byte, error) {
	a.Count = len(a.News)
	if a.News == nil {
		a.News = []NewsItem{}
	}
	return marshalUnescaped(aggregateJSON(a))
}

// UnmarshalJSON ignores the stored count and derives it from news.
func (a *AggregateResult) UnmarshalJSON(data []byte) error {
	var raw aggregateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = AggregateResult(raw)
	a.Count = len(a.News)
	return nil
}

// Encode renders the aggregate as indented UTF-8 JSON for persistence.
func (a *AggregateResult) Encode() ([]byte, error) {
	return EncodeJSON(a)
}

// EncodeJSON writes v as indented JSON without HTML escaping.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalUnescaped(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
