package examservice

import (
	"encoding/json"
	"net/http"

	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/hobbyfarm/examdesk/pkg/schema"
	"github.com/hobbyfarm/examdesk/pkg/util"
)

type submitBody struct {
	UserId      string            `json:"userId"`
	Answers     []json.RawMessage `json:"answers"`
	CategoryKey json.RawMessage   `json:"categoryKey"`
}

func (e ExamServer) CreateFunc(w http.ResponseWriter, r *http.Request) {
	var body submitBody
	if err := schema.DecodeRequest(w, r, e.maxBodyBytes, submitSchema, &body); err != nil {
		util.ReturnHTTPError(w, r, err)
		return
	}

	exam, err := e.engine.SubmitExam(r.Context(), SubmitRequest{
		UserId:      body.UserId,
		Answers:     body.Answers,
		CategoryKey: util.OptionalString(body.CategoryKey),
	})
	if err != nil {
		util.ReturnHTTPError(w, r, err)
		return
	}

	util.ReturnHTTPContent(w, r, http.StatusCreated, exam)
}

func (e ExamServer) GetFunc(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	exam, err := e.engine.GetExamById(r.Context(), id)
	if err != nil {
		util.ReturnHTTPError(w, r, err)
		return
	}

	util.ReturnHTTPContent(w, r, http.StatusOK, exam)
	glog.V(2).Infof("retrieved exam %s", exam.Id)
}

func (e ExamServer) ListFunc(w http.ResponseWriter, r *http.Request) {
	userId := mux.Vars(r)["userId"]

	exams, err := e.engine.ListExamsByUser(r.Context(), userId)
	if err != nil {
		util.ReturnHTTPError(w, r, err)
		return
	}

	util.ReturnHTTPContent(w, r, http.StatusOK, exams)
	glog.V(2).Infof("listed %d exams for user %s", len(exams), userId)
}
