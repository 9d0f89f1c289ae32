package examservice

import (
	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/hobbyfarm/examdesk/pkg/schema"
)

type ExamServer struct {
	engine       *ExamEngine
	maxBodyBytes int64
}

func NewExamServer(engine *ExamEngine, maxBodyBytes int64) ExamServer {
	e := ExamServer{}
	e.engine = engine
	e.maxBodyBytes = maxBodyBytes
	return e
}

func (e ExamServer) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/exams", e.CreateFunc).Methods("POST")
	r.HandleFunc("/exams/user/{userId}", e.ListFunc).Methods("GET")
	r.HandleFunc("/exams/{id}", e.GetFunc).Methods("GET")
	glog.V(2).Infof("set up routes for Exam server")
}

// categoryKey is not checked here, a non-string value is stored as null
var submitSchema = schema.MustCompile(`{
	"type": "object",
	"required": ["userId", "answers"],
	"properties": {
		"userId": {"type": "string"},
		"answers": {"type": "array", "minItems": 1}
	}
}`, []string{"userId", "answers"}, map[string]string{
	"userId":  "userId is required",
	"answers": "answers must be a non-empty array",
})
