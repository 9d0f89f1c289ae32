package draftservice

import (
	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/hobbyfarm/examdesk/pkg/schema"
)

type DraftServer struct {
	manager      *DraftManager
	maxBodyBytes int64
}

func NewDraftServer(manager *DraftManager, maxBodyBytes int64) DraftServer {
	d := DraftServer{}
	d.manager = manager
	d.maxBodyBytes = maxBodyBytes
	return d
}

func (d DraftServer) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/exams/draft", d.SaveFunc).Methods("POST")
	r.HandleFunc("/exams/draft/{userId}", d.GetFunc).Methods("GET")
	r.HandleFunc("/exams/draft/{userId}", d.DeleteFunc).Methods("DELETE")
	glog.V(2).Infof("set up routes for Draft server")
}

var saveSchema = schema.MustCompile(`{
	"type": "object",
	"required": ["userId", "answers"],
	"properties": {
		"userId": {"type": "string"},
		"answers": {"type": "array"},
		"progressIndex": {"type": ["integer", "null"], "minimum": 0},
		"total": {"type": ["integer", "null"], "minimum": 0}
	}
}`, []string{"userId", "answers", "progressIndex", "total"}, map[string]string{
	"userId":        "userId is required",
	"answers":       "answers must be an array",
	"progressIndex": "progressIndex must be a non-negative integer",
	"total":         "total must be a non-negative integer",
})
