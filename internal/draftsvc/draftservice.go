package draftservice

import (
	"encoding/json"
	"math"
	"net/http"

	"github.com/gorilla/mux"
	hferrors "github.com/hobbyfarm/examdesk/pkg/errors"
	"github.com/hobbyfarm/examdesk/pkg/schema"
	"github.com/hobbyfarm/examdesk/pkg/util"
)

type saveBody struct {
	UserId        string            `json:"userId"`
	Answers       []json.RawMessage `json:"answers"`
	CategoryKey   json.RawMessage   `json:"categoryKey"`
	ProgressIndex *json.Number      `json:"progressIndex"`
	Total         *json.Number      `json:"total"`
}

// wholeNumber converts a schema-checked JSON number such as 3 or 3.0 to an
// int. Absent and null numbers come back as nil.
func wholeNumber(n *json.Number, field string) (*int, error) {
	if n == nil {
		return nil, nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f < 0 || f > math.MaxInt32 {
		return nil, hferrors.NewValidationError(field, field+" must be a non-negative integer")
	}
	i := int(f)
	return &i, nil
}

func (d DraftServer) SaveFunc(w http.ResponseWriter, r *http.Request) {
	var body saveBody
	if err := schema.DecodeRequest(w, r, d.maxBodyBytes, saveSchema, &body); err != nil {
		util.ReturnHTTPError(w, r, err)
		return
	}
	progressIndex, err := wholeNumber(body.ProgressIndex, "progressIndex")
	if err != nil {
		util.ReturnHTTPError(w, r, err)
		return
	}
	total, err := wholeNumber(body.Total, "total")
	if err != nil {
		util.ReturnHTTPError(w, r, err)
		return
	}

	draft, err := d.manager.SaveDraft(r.Context(), SaveRequest{
		UserId:        body.UserId,
		Answers:       body.Answers,
		CategoryKey:   util.OptionalString(body.CategoryKey),
		ProgressIndex: progressIndex,
		Total:         total,
	})
	if err != nil {
		util.ReturnHTTPError(w, r, err)
		return
	}

	util.ReturnHTTPContent(w, r, http.StatusOK, draft)
}

func (d DraftServer) GetFunc(w http.ResponseWriter, r *http.Request) {
	userId := mux.Vars(r)["userId"]

	draft, err := d.manager.GetDraftByUser(r.Context(), userId)
	if err != nil {
		util.ReturnHTTPError(w, r, err)
		return
	}

	if draft == nil {
		util.ReturnHTTPContent(w, r, http.StatusOK, nil)
		return
	}
	util.ReturnHTTPContent(w, r, http.StatusOK, draft)
}

func (d DraftServer) DeleteFunc(w http.ResponseWriter, r *http.Request) {
	userId := mux.Vars(r)["userId"]

	result, err := d.manager.ClearDraftByUser(r.Context(), userId)
	if err != nil {
		util.ReturnHTTPError(w, r, err)
		return
	}

	util.ReturnHTTPContent(w, r, http.StatusOK, result)
}
