package store

import (
	"encoding/json"
	"sort"

	"github.com/golang/glog"
	v1 "github.com/hobbyfarm/examdesk/pkg/apis/examdesk.io/v1"
)

// Document is the whole persisted state. Users and Exams keep insertion
// order; drafts are indexed by the owning user.
type Document struct {
	Users  []v1.User
	Exams  []v1.Exam
	Drafts DraftIndex
}

func NewDocument() *Document {
	return &Document{
		Users:  []v1.User{},
		Exams:  []v1.Exam{},
		Drafts: DraftIndex{},
	}
}

func (d *Document) FindUser(id string) (v1.User, bool) {
	for _, u := range d.Users {
		if u.Id == id {
			return u, true
		}
	}
	return v1.User{}, false
}

func (d *Document) FindExam(id string) (v1.Exam, bool) {
	for _, e := range d.Exams {
		if e.Id == id {
			return e, true
		}
	}
	return v1.Exam{}, false
}

// DraftIndex maps a user id to that user's only draft.
type DraftIndex map[string]v1.Draft

func (di DraftIndex) Get(userId string) (v1.Draft, bool) {
	d, ok := di[userId]
	return d, ok
}

func (di DraftIndex) Put(d v1.Draft) {
	di[d.UserId] = d
}

// Delete removes the user's draft and reports whether there was one.
func (di DraftIndex) Delete(userId string) bool {
	_, ok := di[userId]
	delete(di, userId)
	return ok
}

// Sorted returns the drafts ordered by createdAt, then id.
func (di DraftIndex) Sorted() []v1.Draft {
	drafts := make([]v1.Draft, 0, len(di))
	for _, d := range di {
		drafts = append(drafts, d)
	}
	sort.Slice(drafts, func(i, j int) bool {
		if drafts[i].CreatedAt != drafts[j].CreatedAt {
			return drafts[i].CreatedAt < drafts[j].CreatedAt
		}
		return drafts[i].Id < drafts[j].Id
	})
	return drafts
}

type document struct {
	Users  []v1.User  `json:"users"`
	Exams  []v1.Exam  `json:"exams"`
	Drafts []v1.Draft `json:"drafts"`
}

func (d *Document) MarshalJSON() ([]byte, error) {
	out := document{
		Users:  d.Users,
		Exams:  d.Exams,
		Drafts: d.Drafts.Sorted(),
	}
	if out.Users == nil {
		out.Users = []v1.User{}
	}
	if out.Exams == nil {
		out.Exams = []v1.Exam{}
	}
	return json.Marshal(out)
}

// decodeDocument never fails: unparsable input yields an empty document, each
// collection that is missing or not an array is replaced by an empty one and
// malformed elements are dropped from their collection.
func decodeDocument(data []byte) *Document {
	doc := NewDocument()

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		glog.Errorf("store: document is not valid json, using empty document: %v", err)
		return doc
	}

	if users, ok := decodeCollection[v1.User](top, "users"); ok {
		doc.Users = users
	}

	if exams, ok := decodeCollection[v1.Exam](top, "exams"); ok {
		doc.Exams = exams
	}

	if drafts, ok := decodeCollection[v1.Draft](top, "drafts"); ok {
		for _, d := range drafts {
			if existing, ok := doc.Drafts[d.UserId]; ok && existing.UpdatedAt > d.UpdatedAt {
				continue
			}
			doc.Drafts[d.UserId] = d
		}
	}

	return doc
}

// decodeCollection decodes the named array one element at a time. Elements
// that do not decode are skipped so the rest of the collection survives.
func decodeCollection[T any](top map[string]json.RawMessage, name string) ([]T, bool) {
	raw, ok := top[name]
	if !ok {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		glog.Errorf("store: collection %s is malformed, using empty collection: %v", name, err)
		return nil, false
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			glog.Errorf("store: skipping malformed %s entry %d: %v", name, i, err)
			continue
		}
		out = append(out, v)
	}
	return out, true
}
