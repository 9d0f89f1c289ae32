package userservice

import (
	"net/http"

	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/hobbyfarm/examdesk/pkg/schema"
	"github.com/hobbyfarm/examdesk/pkg/util"
)

func (u UserServer) CreateFunc(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := schema.DecodeRequest(w, r, u.maxBodyBytes, registerSchema, &req); err != nil {
		util.ReturnHTTPError(w, r, err)
		return
	}

	user, created, err := u.directory.RegisterUser(r.Context(), req)
	if err != nil {
		util.ReturnHTTPError(w, r, err)
		return
	}

	if !created {
		util.ReturnHTTPContent(w, r, http.StatusOK, user)
		return
	}
	util.ReturnHTTPContent(w, r, http.StatusCreated, user)
}

func (u UserServer) GetFunc(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	user, err := u.directory.GetUserById(r.Context(), id)
	if err != nil {
		util.ReturnHTTPError(w, r, err)
		return
	}

	util.ReturnHTTPContent(w, r, http.StatusOK, user)
	glog.V(2).Infof("retrieved user %s", user.Id)
}

// GetByPhoneFunc answers with data null rather than 404 for an unknown phone,
// the app probes with it before registering.
func (u UserServer) GetByPhoneFunc(w http.ResponseWriter, r *http.Request) {
	phone := mux.Vars(r)["phone"]

	user, err := u.directory.GetUserByPhone(r.Context(), phone)
	if err != nil {
		util.ReturnHTTPError(w, r, err)
		return
	}

	if user == nil {
		util.ReturnHTTPContent(w, r, http.StatusOK, nil)
		return
	}
	util.ReturnHTTPContent(w, r, http.StatusOK, user)
}

func (u UserServer) ListFunc(w http.ResponseWriter, r *http.Request) {
	users, err := u.directory.ListUsers(r.Context())
	if err != nil {
		util.ReturnHTTPError(w, r, err)
		return
	}

	util.ReturnHTTPContent(w, r, http.StatusOK, users)
	glog.V(2).Infof("listed %d users", len(users))
}
