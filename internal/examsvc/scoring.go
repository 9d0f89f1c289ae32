package examservice

import (
	"math"
	"sort"

	"github.com/hobbyfarm/examdesk/pkg/answers"
	v1 "github.com/hobbyfarm/examdesk/pkg/apis/examdesk.io/v1"
)

// PassRate is the share of correct answers an objective exam needs to pass.
const PassRate = 0.6

type Score struct {
	Score    int
	Total    int
	Result   string
	Analysis v1.Analysis
}

func ScoreAnswers(set answers.Set) Score {
	if set.Mode == answers.ModeChoice {
		return scoreChoices(set.Choices)
	}
	return scoreObjective(set.Correct)
}

func PassScore(total int) int {
	return int(math.Ceil(float64(total) * PassRate))
}

func scoreObjective(correct []bool) Score {
	s := Score{
		Total:    len(correct),
		Result:   v1.ResultFailed,
		Analysis: v1.Analysis{Mode: v1.AnalysisModeCorrect},
	}
	for _, c := range correct {
		if c {
			s.Score++
		}
	}
	if s.Score >= PassScore(s.Total) {
		s.Result = v1.ResultPassed
	}
	return s
}

// TallyChoices counts each key and ranks them by count, descending. Keys with
// equal counts keep the order they were first seen in.
func TallyChoices(choices []string) v1.ChoiceCounts {
	counts := v1.ChoiceCounts{}
	index := make(map[string]int)
	for _, key := range choices {
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			counts[i].Count++
			continue
		}
		index[key] = len(counts)
		counts = append(counts, v1.ChoiceCount{Key: key, Count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}

func scoreChoices(choices []string) Score {
	counts := TallyChoices(choices)
	s := Score{
		Total:  len(choices),
		Result: v1.ResultUnknown,
		Analysis: v1.Analysis{
			Mode:   v1.AnalysisModeChoice,
			Counts: counts,
		},
	}
	if len(counts) > 0 {
		top := counts[0]
		s.Score = top.Count
		s.Result = top.Key
		s.Analysis.TopChoice = &top.Key
	}
	return s
}
