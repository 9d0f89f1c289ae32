package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	v1 "github.com/hobbyfarm/examdesk/pkg/apis/examdesk.io/v1"
	hferrors "github.com/hobbyfarm/examdesk/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "data", "db.json"))
}

func TestReadCreatesDefaultDocument(t *testing.T) {
	s := newTestStore(t)

	doc, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc.Users)
	assert.Empty(t, doc.Exams)
	assert.Empty(t, doc.Drafts)

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `{"users":[],"exams":[],"drafts":[]}`, string(data))
}

func TestReadFailSoft(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantUsers int
		wantExams int
	}{
		{name: "not json", content: `{"users": [`, wantUsers: 0, wantExams: 0},
		{name: "not an object", content: `[1,2,3]`, wantUsers: 0, wantExams: 0},
		{name: "missing collections", content: `{}`, wantUsers: 0, wantExams: 0},
		{
			name:      "one bad collection",
			content:   `{"users":[{"id":"u1","phone":"09121112222"}],"exams":{"oops":true},"drafts":null}`,
			wantUsers: 1,
			wantExams: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o755))
			require.NoError(t, os.WriteFile(s.Path(), []byte(tt.content), 0o644))

			doc, err := s.Read(context.Background())
			require.NoError(t, err)
			assert.Len(t, doc.Users, tt.wantUsers)
			assert.Len(t, doc.Exams, tt.wantExams)
			assert.NotNil(t, doc.Drafts)
		})
	}
}

func TestMalformedEntryKeepsRestOfCollection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o755))
	require.NoError(t, os.WriteFile(s.Path(), []byte(`{
		"users": [
			{"id":"a","fullName":"Ali","phone":"09120000001","createdAt":"2024-01-01T00:00:00.000Z"},
			{"id":"b","fullName":"Bad","phone":"09120000002","createdAt":1700000000}
		],
		"exams": [{"id":"e1","userId":"a","score":"three"}, {"id":"e2","userId":"a"}],
		"drafts": [{"id":"d1","userId":"a","progressIndex":"x"}, {"id":"d2","userId":"c"}]
	}`), 0o644))

	_, err := s.Update(ctx, func(doc *Document) error {
		doc.Users = append(doc.Users, v1.User{Id: "c"})
		return nil
	})
	require.NoError(t, err)

	doc, err := s.Read(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Users, 2)
	assert.Equal(t, "a", doc.Users[0].Id)
	assert.Equal(t, "Ali", doc.Users[0].FullName)
	assert.Equal(t, "c", doc.Users[1].Id)
	require.Len(t, doc.Exams, 1)
	assert.Equal(t, "e2", doc.Exams[0].Id)
	assert.Len(t, doc.Drafts, 1)
	_, ok := doc.Drafts.Get("c")
	assert.True(t, ok)
}

func TestUpdateCommits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc, err := s.Update(ctx, func(doc *Document) error {
		doc.Users = append(doc.Users, v1.User{Id: "u1", Phone: "09121112222"})
		doc.Drafts.Put(v1.Draft{Id: "d1", UserId: "u1", Answers: []json.RawMessage{}})
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, doc.Users, 1)

	reread, err := s.Read(ctx)
	require.NoError(t, err)
	user, ok := reread.FindUser("u1")
	assert.True(t, ok)
	assert.Equal(t, "09121112222", user.Phone)
	draft, ok := reread.Drafts.Get("u1")
	assert.True(t, ok)
	assert.Equal(t, "d1", draft.Id)

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestUpdateErrorWritesNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Update(ctx, func(doc *Document) error {
		doc.Users = append(doc.Users, v1.User{Id: "u1"})
		return nil
	})
	require.NoError(t, err)

	notFound := hferrors.NewNotFound(hferrors.CodeUserNotFound, "User not found", nil)
	_, err = s.Update(ctx, func(doc *Document) error {
		doc.Users = append(doc.Users, v1.User{Id: "u2"})
		return notFound
	})
	assert.Equal(t, notFound, err)

	doc, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Len(t, doc.Users, 1)

	// the failed update must not block the next one
	_, err = s.Update(ctx, func(doc *Document) error { return nil })
	assert.NoError(t, err)
}

func TestUpdateUnchangedSkipsWrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Read(ctx)
	require.NoError(t, err)
	before, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	doc, err := s.Update(ctx, func(doc *Document) error {
		doc.Users = append(doc.Users, v1.User{Id: "discarded"})
		return ErrUnchanged
	})
	require.NoError(t, err)
	require.NotNil(t, doc)

	after, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	const n = 40

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("u%02d", i)
		g.Go(func() error {
			_, err := s.Update(gctx, func(doc *Document) error {
				doc.Users = append(doc.Users, v1.User{Id: id})
				return nil
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	doc, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Len(t, doc.Users, n)
}

func TestReadWaitsForInFlightUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := s.Update(ctx, func(doc *Document) error {
			close(started)
			<-release
			doc.Users = append(doc.Users, v1.User{Id: "late"})
			return nil
		})
		done <- err
	}()
	<-started

	readDone := make(chan *Document, 1)
	go func() {
		doc, err := s.Read(ctx)
		if err == nil {
			readDone <- doc
		}
		close(readDone)
	}()

	select {
	case <-readDone:
		t.Fatal("read completed while an update held the store")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-done)
	doc, ok := <-readDone
	require.True(t, ok)
	require.NotNil(t, doc)
	_, found := doc.FindUser("late")
	assert.True(t, found)
}

func TestCanceledContextGivesUpWaiting(t *testing.T) {
	s := newTestStore(t)

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		s.Update(context.Background(), func(doc *Document) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.Read(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDraftsPersistSorted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Update(ctx, func(doc *Document) error {
		doc.Drafts.Put(v1.Draft{Id: "d2", UserId: "u2", CreatedAt: "2026-01-02T00:00:00.000Z"})
		doc.Drafts.Put(v1.Draft{Id: "d1", UserId: "u1", CreatedAt: "2026-01-01T00:00:00.000Z"})
		return nil
	})
	require.NoError(t, err)

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	var raw struct {
		Drafts []v1.Draft `json:"drafts"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw.Drafts, 2)
	assert.Equal(t, "d1", raw.Drafts[0].Id)
	assert.Equal(t, "d2", raw.Drafts[1].Id)
}

func TestDuplicateDraftsKeepNewest(t *testing.T) {
	doc := decodeDocument([]byte(`{"drafts":[
		{"id":"new","userId":"u1","updatedAt":"2026-02-01T00:00:00.000Z"},
		{"id":"old","userId":"u1","updatedAt":"2026-01-01T00:00:00.000Z"}
	]}`))

	draft, ok := doc.Drafts.Get("u1")
	require.True(t, ok)
	assert.Equal(t, "new", draft.Id)
	assert.Len(t, doc.Drafts, 1)
}
