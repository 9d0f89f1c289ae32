package examservice

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	v1 "github.com/hobbyfarm/examdesk/pkg/apis/examdesk.io/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func serve(t *testing.T, h http.Handler, method string, path string, body string) (int, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func TestExamRoutes(t *testing.T) {
	e, _ := newTestEngine(t)
	r := mux.NewRouter()
	NewExamServer(e, 0).SetupRoutes(r)

	status, env := serve(t, r, http.MethodPost, "/exams", `{"userId":"user-1","answers":["A","A","B"],"categoryKey":7}`)
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, env.Success)
	var exam v1.Exam
	require.NoError(t, json.Unmarshal(env.Data, &exam))
	assert.Equal(t, "A", exam.Result)
	assert.Nil(t, exam.CategoryKey)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &raw))
	assert.JSONEq(t, `{"mode":"choice","topChoice":"A","counts":{"A":2,"B":1}}`, string(raw["analysis"]))
	assert.Equal(t, "null", string(raw["categoryKey"]))

	status, env = serve(t, r, http.MethodGet, "/exams/"+exam.Id, "")
	assert.Equal(t, http.StatusOK, status)
	var got v1.Exam
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, exam.Id, got.Id)

	status, env = serve(t, r, http.MethodGet, "/exams/missing", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "EXAM_NOT_FOUND", env.Error.Code)

	status, env = serve(t, r, http.MethodGet, "/exams/user/user-1", "")
	assert.Equal(t, http.StatusOK, status)
	var exams []v1.Exam
	require.NoError(t, json.Unmarshal(env.Data, &exams))
	assert.Len(t, exams, 1)

	status, env = serve(t, r, http.MethodGet, "/exams/user/nobody", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "[]", string(env.Data))
}

func TestCreateFuncErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{name: "user id not a string", body: `{"userId":5,"answers":[true]}`, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR", wantMsg: "userId is required"},
		{name: "answers not an array", body: `{"userId":"user-1","answers":"A"}`, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR", wantMsg: "answers must be a non-empty array"},
		{name: "empty answers", body: `{"userId":"user-1","answers":[]}`, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR", wantMsg: "answers must be a non-empty array"},
		{name: "null answer", body: `{"userId":"user-1","answers":[true,null]}`, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR", wantMsg: "answers format is invalid"},
		{name: "unknown user", body: `{"userId":"ghost","answers":[true]}`, wantStatus: http.StatusNotFound, wantCode: "USER_NOT_FOUND", wantMsg: "User not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t)
			r := mux.NewRouter()
			NewExamServer(e, 0).SetupRoutes(r)

			status, env := serve(t, r, http.MethodPost, "/exams", tt.body)
			assert.Equal(t, tt.wantStatus, status)
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantCode, env.Error.Code)
			assert.Equal(t, tt.wantMsg, env.Error.Message)
		})
	}
}
