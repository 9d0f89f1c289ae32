package userservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	v1 "github.com/hobbyfarm/examdesk/pkg/apis/examdesk.io/v1"
	hferrors "github.com/hobbyfarm/examdesk/pkg/errors"
	"github.com/hobbyfarm/examdesk/pkg/store"
)

// RegistrationPolicy decides what registering an already known phone does.
type RegistrationPolicy string

const (
	// RegistrationPolicyReject fails with PHONE_EXISTS.
	RegistrationPolicyReject RegistrationPolicy = "reject"
	// RegistrationPolicyLogin hands back the existing user untouched.
	RegistrationPolicyLogin RegistrationPolicy = "login"
)

func ParseRegistrationPolicy(s string) (RegistrationPolicy, error) {
	switch p := RegistrationPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case RegistrationPolicyReject, RegistrationPolicyLogin:
		return p, nil
	case "":
		return RegistrationPolicyReject, nil
	}
	return "", fmt.Errorf("unknown registration policy %q, expected %q or %q", s, RegistrationPolicyReject, RegistrationPolicyLogin)
}

type RegisterRequest struct {
	FullName     string `json:"fullName"`
	FieldOfStudy string `json:"fieldOfStudy"`
	Phone        string `json:"phone"`
}

type UserDirectory struct {
	store  *store.Store
	policy RegistrationPolicy
	now    func() time.Time
}

func NewUserDirectory(s *store.Store, policy RegistrationPolicy) *UserDirectory {
	if policy == "" {
		policy = RegistrationPolicyReject
	}
	return &UserDirectory{
		store:  s,
		policy: policy,
		now:    time.Now,
	}
}

func (d *UserDirectory) Policy() RegistrationPolicy {
	return d.policy
}

// findUserByPhone normalizes stored phones too, as records written before
// normalization existed may hold other spellings.
func findUserByPhone(doc *store.Document, phone string) (v1.User, bool) {
	for _, u := range doc.Users {
		if NormalizePhone(u.Phone) == phone {
			return u, true
		}
	}
	return v1.User{}, false
}

func requireString(value string, field string) error {
	if strings.TrimSpace(value) == "" {
		return hferrors.NewRequiredError(field)
	}
	return nil
}

// RegisterUser creates a user, or applies the registration policy when the
// phone is taken. The returned bool is true only if a user was created.
func (d *UserDirectory) RegisterUser(ctx context.Context, req RegisterRequest) (v1.User, bool, error) {
	if err := requireString(req.FullName, "fullName"); err != nil {
		return v1.User{}, false, err
	}
	if err := requireString(req.FieldOfStudy, "fieldOfStudy"); err != nil {
		return v1.User{}, false, err
	}
	if err := requireString(req.Phone, "phone"); err != nil {
		return v1.User{}, false, err
	}

	phone := NormalizePhone(req.Phone)
	if phone == "" {
		return v1.User{}, false, hferrors.NewValidationError("phone", "phone must contain digits")
	}

	var user v1.User
	var created bool
	_, err := d.store.Update(ctx, func(doc *store.Document) error {
		if existing, ok := findUserByPhone(doc, phone); ok {
			if d.policy == RegistrationPolicyLogin {
				user = existing
				return store.ErrUnchanged
			}
			return hferrors.NewConflict(hferrors.CodePhoneExists, "Phone number already registered", map[string]any{
				"phone": phone,
			})
		}

		user = v1.User{
			Id:           uuid.NewString(),
			FullName:     strings.TrimSpace(req.FullName),
			FieldOfStudy: strings.TrimSpace(req.FieldOfStudy),
			Phone:        phone,
			CreatedAt:    v1.FormatTimestamp(d.now()),
		}
		doc.Users = append(doc.Users, user)
		created = true
		return nil
	})
	if err != nil {
		return v1.User{}, false, err
	}

	if created {
		glog.V(2).Infof("registered user %s", user.Id)
	} else {
		glog.V(2).Infof("phone already registered, returning user %s", user.Id)
	}
	return user, created, nil
}

func (d *UserDirectory) GetUserById(ctx context.Context, id string) (v1.User, error) {
	doc, err := d.store.Read(ctx)
	if err != nil {
		return v1.User{}, err
	}
	user, ok := doc.FindUser(id)
	if !ok {
		return v1.User{}, hferrors.NewNotFound(hferrors.CodeUserNotFound, "User not found", map[string]any{"id": id})
	}
	return user, nil
}

// GetUserByPhone returns nil, not an error, when no user has the phone.
func (d *UserDirectory) GetUserByPhone(ctx context.Context, phone string) (*v1.User, error) {
	normalized := NormalizePhone(phone)
	if normalized == "" {
		return nil, nil
	}
	doc, err := d.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	user, ok := findUserByPhone(doc, normalized)
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (d *UserDirectory) ListUsers(ctx context.Context) ([]v1.User, error) {
	doc, err := d.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Users, nil
}
