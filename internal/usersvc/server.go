package userservice

import (
	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/hobbyfarm/examdesk/pkg/schema"
)

type UserServer struct {
	directory    *UserDirectory
	maxBodyBytes int64
}

func NewUserServer(directory *UserDirectory, maxBodyBytes int64) UserServer {
	u := UserServer{}
	u.directory = directory
	u.maxBodyBytes = maxBodyBytes
	return u
}

func (u UserServer) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/users", u.ListFunc).Methods("GET")
	r.HandleFunc("/users", u.CreateFunc).Methods("POST")
	r.HandleFunc("/users/by-phone/{phone}", u.GetByPhoneFunc).Methods("GET")
	r.HandleFunc("/users/{id}", u.GetFunc).Methods("GET")
	glog.V(2).Infof("set up routes for User server")
}

var registerSchema = schema.MustCompile(`{
	"type": "object",
	"required": ["fullName", "fieldOfStudy", "phone"],
	"properties": {
		"fullName": {"type": "string"},
		"fieldOfStudy": {"type": "string"},
		"phone": {"type": "string"}
	}
}`, []string{"fullName", "fieldOfStudy", "phone"}, map[string]string{
	"fullName":     "fullName is required",
	"fieldOfStudy": "fieldOfStudy is required",
	"phone":        "phone is required",
})
