package draftservice

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	v1 "github.com/hobbyfarm/examdesk/pkg/apis/examdesk.io/v1"
	hferrors "github.com/hobbyfarm/examdesk/pkg/errors"
	"github.com/hobbyfarm/examdesk/pkg/store"
)

type SaveRequest struct {
	UserId        string
	Answers       []json.RawMessage
	CategoryKey   *string
	ProgressIndex *int
	Total         *int
}

type ClearResult struct {
	Cleared bool   `json:"cleared"`
	UserId  string `json:"userId"`
}

// DraftManager keeps at most one in-progress answer sheet per user.
type DraftManager struct {
	store *store.Store
	now   func() time.Time
}

func NewDraftManager(s *store.Store) *DraftManager {
	return &DraftManager{
		store: s,
		now:   time.Now,
	}
}

func validateSave(req SaveRequest) error {
	if strings.TrimSpace(req.UserId) == "" {
		return hferrors.NewRequiredError("userId")
	}
	if req.Answers == nil {
		return hferrors.NewValidationError("answers", "answers must be an array")
	}
	if req.ProgressIndex != nil && *req.ProgressIndex < 0 {
		return hferrors.NewValidationError("progressIndex", "progressIndex must be a non-negative integer")
	}
	if req.Total != nil && *req.Total < 0 {
		return hferrors.NewValidationError("total", "total must be a non-negative integer")
	}
	return nil
}

// nextUpdatedAt returns now, or one millisecond past previous when the clock
// has not moved beyond it.
func nextUpdatedAt(now time.Time, previous string) time.Time {
	now = now.UTC().Truncate(time.Millisecond)
	prev, err := time.Parse(v1.TimestampLayout, previous)
	if err != nil {
		return now
	}
	if !now.After(prev) {
		return prev.Add(time.Millisecond)
	}
	return now
}

// SaveDraft creates the user's draft or overwrites its payload. An existing
// draft keeps its id and createdAt.
func (m *DraftManager) SaveDraft(ctx context.Context, req SaveRequest) (v1.Draft, error) {
	if err := validateSave(req); err != nil {
		return v1.Draft{}, err
	}

	var draft v1.Draft
	_, err := m.store.Update(ctx, func(doc *store.Document) error {
		if _, ok := doc.FindUser(req.UserId); !ok {
			return hferrors.NewNotFound(hferrors.CodeUserNotFound, "User not found", map[string]any{
				"userId": req.UserId,
			})
		}

		now := m.now()
		existing, ok := doc.Drafts.Get(req.UserId)
		if ok {
			draft = existing
			draft.UpdatedAt = v1.FormatTimestamp(nextUpdatedAt(now, existing.UpdatedAt))
		} else {
			draft = v1.Draft{
				Id:        uuid.NewString(),
				UserId:    req.UserId,
				CreatedAt: v1.FormatTimestamp(now),
			}
			draft.UpdatedAt = draft.CreatedAt
		}
		draft.Answers = req.Answers
		draft.CategoryKey = req.CategoryKey
		draft.ProgressIndex = req.ProgressIndex
		draft.Total = req.Total

		doc.Drafts.Put(draft)
		return nil
	})
	if err != nil {
		return v1.Draft{}, err
	}

	glog.V(2).Infof("saved draft %s for user %s with %d answers", draft.Id, draft.UserId, len(draft.Answers))
	return draft, nil
}

// GetDraftByUser returns nil, not an error, when the user has no draft.
func (m *DraftManager) GetDraftByUser(ctx context.Context, userId string) (*v1.Draft, error) {
	doc, err := m.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	draft, ok := doc.Drafts.Get(userId)
	if !ok {
		return nil, nil
	}
	return &draft, nil
}

// ClearDraftByUser removes the user's draft. Clearing a user without a draft
// succeeds the same way and leaves the store file untouched.
func (m *DraftManager) ClearDraftByUser(ctx context.Context, userId string) (ClearResult, error) {
	if strings.TrimSpace(userId) == "" {
		return ClearResult{}, hferrors.NewRequiredError("userId")
	}

	_, err := m.store.Update(ctx, func(doc *store.Document) error {
		if !doc.Drafts.Delete(userId) {
			return store.ErrUnchanged
		}
		return nil
	})
	if err != nil {
		return ClearResult{}, err
	}

	glog.V(2).Infof("cleared draft of user %s", userId)
	return ClearResult{Cleared: true, UserId: userId}, nil
}
