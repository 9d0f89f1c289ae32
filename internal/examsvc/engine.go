package examservice

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/hobbyfarm/examdesk/pkg/answers"
	v1 "github.com/hobbyfarm/examdesk/pkg/apis/examdesk.io/v1"
	hferrors "github.com/hobbyfarm/examdesk/pkg/errors"
	"github.com/hobbyfarm/examdesk/pkg/store"
)

type SubmitRequest struct {
	UserId      string
	Answers     []json.RawMessage
	CategoryKey *string
}

type ExamEngine struct {
	store *store.Store
	now   func() time.Time
}

func NewExamEngine(s *store.Store) *ExamEngine {
	return &ExamEngine{
		store: s,
		now:   time.Now,
	}
}

// SubmitExam scores the answers and records the exam. Any draft the user had
// is discarded in the same store update.
func (e *ExamEngine) SubmitExam(ctx context.Context, req SubmitRequest) (v1.Exam, error) {
	if strings.TrimSpace(req.UserId) == "" {
		return v1.Exam{}, hferrors.NewRequiredError("userId")
	}

	set, err := answers.Decode(req.Answers)
	if err != nil {
		return v1.Exam{}, err
	}
	score := ScoreAnswers(set)

	var exam v1.Exam
	_, err = e.store.Update(ctx, func(doc *store.Document) error {
		if _, ok := doc.FindUser(req.UserId); !ok {
			return hferrors.NewNotFound(hferrors.CodeUserNotFound, "User not found", map[string]any{
				"userId": req.UserId,
			})
		}

		exam = v1.Exam{
			Id:          uuid.NewString(),
			UserId:      req.UserId,
			Answers:     set.Raw,
			Score:       score.Score,
			Total:       score.Total,
			Result:      score.Result,
			Analysis:    score.Analysis,
			CategoryKey: req.CategoryKey,
			CreatedAt:   v1.FormatTimestamp(e.now()),
		}
		doc.Exams = append(doc.Exams, exam)
		if doc.Drafts.Delete(req.UserId) {
			glog.V(2).Infof("cleared draft of user %s on submit", req.UserId)
		}
		return nil
	})
	if err != nil {
		return v1.Exam{}, err
	}

	glog.V(2).Infof("recorded %s exam %s for user %s: %d/%d %s", set.Mode, exam.Id, exam.UserId, exam.Score, exam.Total, exam.Result)
	return exam, nil
}

func (e *ExamEngine) GetExamById(ctx context.Context, id string) (v1.Exam, error) {
	doc, err := e.store.Read(ctx)
	if err != nil {
		return v1.Exam{}, err
	}
	exam, ok := doc.FindExam(id)
	if !ok {
		return v1.Exam{}, hferrors.NewNotFound(hferrors.CodeExamNotFound, "Exam not found", map[string]any{"id": id})
	}
	return exam, nil
}

// ListExamsByUser returns the user's exams oldest first. An unknown user
// simply has no exams.
func (e *ExamEngine) ListExamsByUser(ctx context.Context, userId string) ([]v1.Exam, error) {
	doc, err := e.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	exams := []v1.Exam{}
	for _, exam := range doc.Exams {
		if exam.UserId == userId {
			exams = append(exams, exam)
		}
	}
	return exams, nil
}
