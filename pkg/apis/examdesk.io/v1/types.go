package v1

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type AnalysisMode string

const (
	AnalysisModeCorrect AnalysisMode = "correct"
	AnalysisModeChoice  AnalysisMode = "choice"
)

const (
	ResultPassed  = "passed"
	ResultFailed  = "failed"
	ResultUnknown = "unknown"
)

// TimestampLayout is the layout every createdAt/updatedAt field is written in.
// It matches JavaScript's Date.toISOString so existing db.json files stay readable.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

type User struct {
	Id           string `json:"id"`
	FullName     string `json:"fullName"`
	FieldOfStudy string `json:"fieldOfStudy"`
	Phone        string `json:"phone"` // always stored normalized
	CreatedAt    string `json:"createdAt"`
}

type Exam struct {
	Id          string            `json:"id"`
	UserId      string            `json:"userId"`
	Answers     []json.RawMessage `json:"answers"` // stored exactly as submitted
	Score       int               `json:"score"`
	Total       int               `json:"total"`
	Result      string            `json:"result"`
	Analysis    Analysis          `json:"analysis"`
	CategoryKey *string           `json:"categoryKey"`
	CreatedAt   string            `json:"createdAt"`
}

// Analysis describes how an exam was scored. TopChoice and Counts are only
// emitted for choice mode.
type Analysis struct {
	Mode      AnalysisMode `json:"mode"`
	TopChoice *string      `json:"-"`
	Counts    ChoiceCounts `json:"-"`
}

type analysisChoice struct {
	Mode      AnalysisMode `json:"mode"`
	TopChoice *string      `json:"topChoice"`
	Counts    ChoiceCounts `json:"counts"`
}

type analysisCorrect struct {
	Mode AnalysisMode `json:"mode"`
}

func (a Analysis) MarshalJSON() ([]byte, error) {
	if a.Mode == AnalysisModeChoice {
		counts := a.Counts
		if counts == nil {
			counts = ChoiceCounts{}
		}
		return json.Marshal(analysisChoice{Mode: a.Mode, TopChoice: a.TopChoice, Counts: counts})
	}
	return json.Marshal(analysisCorrect{Mode: a.Mode})
}

func (a *Analysis) UnmarshalJSON(data []byte) error {
	var in analysisChoice
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	a.Mode = in.Mode
	a.TopChoice = in.TopChoice
	a.Counts = in.Counts
	return nil
}

// ChoiceCount is a single tally entry in choice mode.
type ChoiceCount struct {
	Key   string
	Count int
}

// ChoiceCounts keeps the tally in ranking order. It serializes as a JSON
// object whose keys follow that order.
type ChoiceCounts []ChoiceCount

func (c ChoiceCounts) Get(key string) (int, bool) {
	for _, cc := range c {
		if cc.Key == key {
			return cc.Count, true
		}
	}
	return 0, false
}

func (c ChoiceCounts) Map() map[string]int {
	m := make(map[string]int, len(c))
	for _, cc := range c {
		m[cc.Key] = cc.Count
	}
	return m
}

func (c ChoiceCounts) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, cc := range c {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(cc.Key)
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		count, err := json.Marshal(cc.Count)
		if err != nil {
			return nil, err
		}
		buf = append(buf, count...)
	}
	return append(buf, '}'), nil
}

func (c *ChoiceCounts) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}
	out := ChoiceCounts{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("choice counts: expected string key, got %v", tok)
		}
		var count int
		if err := dec.Decode(&count); err != nil {
			return err
		}
		out = append(out, ChoiceCount{Key: key, Count: count})
	}
	*c = out
	return nil
}

type Draft struct {
	Id            string            `json:"id"`
	UserId        string            `json:"userId"`
	Answers       []json.RawMessage `json:"answers"`
	CategoryKey   *string           `json:"categoryKey"`
	ProgressIndex *int              `json:"progressIndex"`
	Total         *int              `json:"total"`
	CreatedAt     string            `json:"createdAt"`
	UpdatedAt     string            `json:"updatedAt"`
}
