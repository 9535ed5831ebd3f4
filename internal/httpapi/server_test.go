package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lernbuddy/internal/generation"
	"github.com/abhisek/lernbuddy/internal/identity"
	"github.com/abhisek/lernbuddy/internal/metrics"
	"github.com/abhisek/lernbuddy/internal/profile"
	"github.com/abhisek/lernbuddy/internal/store"
	"github.com/abhisek/lernbuddy/internal/testsession"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	name := strings.NewReplacer("/", "_").Replace(t.Name())
	st, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	gen := generation.New(nil)
	analyzer := profile.NewAnalyzer(st.Profiles())
	return New(Deps{
		Sessions: testsession.New(st.Sessions(), analyzer, gen),
		Profiles: analyzer,
		Content:  gen,
		Metrics:  metrics.New(),
	})
}

func do(t *testing.T, s *Server, method, path, account string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if account != "" {
		req.Header.Set(AccountHeader, account)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequiresAccount(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, s, http.MethodGet, "/api/profile", "   ", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTestLifecycle(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/tests", "anna", gin.H{"subject": "Mathe", "topic": "Analysis", "count": 3})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	started := decode[testsession.Started](t, w)
	assert.Len(t, started.Questions, 3)
	assert.Equal(t, "fallback", string(started.Source))
	assert.Equal(t, 180, started.TimeLimitSeconds)
	assert.NotContains(t, w.Body.String(), "correct_answers")

	w = do(t, s, http.MethodPost, "/api/tests/"+started.ID+"/answers", "anna",
		gin.H{"question_index": 0, "selected_answers": []string{"a"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sub := decode[testsession.Submission](t, w)
	assert.Equal(t, []string{"A"}, sub.SelectedAnswers)
	assert.Equal(t, 1, sub.Answered)

	// Another learner cannot see the session.
	w = do(t, s, http.MethodPost, "/api/tests/"+started.ID+"/finish", "ben", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodGet, "/api/tests/"+started.ID, "anna", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, s, http.MethodPost, "/api/tests/"+started.ID+"/finish", "anna", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[testsession.Result](t, w)
	assert.Equal(t, 3, res.TotalQuestions)
	assert.Equal(t, 1, res.Answered)

	w = do(t, s, http.MethodPost, "/api/tests/"+started.ID+"/finish", "anna", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, s, http.MethodPost, "/api/tests/"+started.ID+"/answers", "anna",
		gin.H{"question_index": 1, "selected_answers": []string{"B"}})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, s, http.MethodGet, "/api/tests/"+started.ID, "anna", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, res.Score, decode[testsession.Result](t, w).Score)

	w = do(t, s, http.MethodGet, "/api/tests/history?limit=5", "anna", nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[struct {
		Tests []testsession.Summary `json:"tests"`
	}](t, w)
	require.Len(t, history.Tests, 1)
	assert.Equal(t, started.ID, history.Tests[0].ID)

	// Finishing recorded a study session.
	w = do(t, s, http.MethodGet, "/api/profile", "anna", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[profile.Profile](t, w).SessionCount)
}

func TestValidationErrors(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/tests", "anna", gin.H{"subject": "Mathe", "topic": "Analysis"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[testsession.Started](t, w).ID

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
		field  string
	}{
		{"missing subject", http.MethodPost, "/api/tests", gin.H{"topic": "Analysis"}, http.StatusBadRequest, "Subject"},
		{"blank subject", http.MethodPost, "/api/tests", gin.H{"subject": "  ", "topic": "Analysis"}, http.StatusBadRequest, ""},
		{"malformed body", http.MethodPost, "/api/tests", "not an object", http.StatusBadRequest, ""},
		{"missing index", http.MethodPost, "/api/tests/" + id + "/answers", gin.H{"selected_answers": []string{"A"}}, http.StatusBadRequest, "QuestionIndex"},
		{"index out of range", http.MethodPost, "/api/tests/" + id + "/answers", gin.H{"question_index": 99}, http.StatusBadRequest, ""},
		{"unknown session", http.MethodPost, "/api/tests/test_nope/answers", gin.H{"question_index": 0}, http.StatusNotFound, ""},
		{"engagement too high", http.MethodPost, "/api/study-sessions", gin.H{"subject": "Mathe", "engagement": 1.5}, http.StatusBadRequest, "Engagement"},
		{"days out of range", http.MethodPost, "/api/study-plan", gin.H{"subject": "Mathe", "days_left": 0}, http.StatusBadRequest, "DaysLeft"},
		{"bad limit", http.MethodGet, "/api/tests/history?limit=abc", nil, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, tt.method, tt.path, "anna", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			if tt.field != "" {
				body := decode[errorBody](t, w)
				require.NotEmpty(t, body.Fields)
				assert.Equal(t, tt.field, body.Fields[0].Field)
			}
		})
	}
}

func TestStudySessionsShapeProfile(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < 5; i++ {
		w := do(t, s, http.MethodPost, "/api/study-sessions", "anna",
			gin.H{"subject": "Mathe", "duration_minutes": 65, "score": 90, "engagement": 0.9})
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	}

	w := do(t, s, http.MethodGet, "/api/profile", "anna", nil)
	require.Equal(t, http.StatusOK, w.Code)
	p := decode[profile.Profile](t, w)
	assert.False(t, p.Default)
	assert.Equal(t, 5, p.SessionCount)
	assert.Equal(t, []string{"Mathe"}, p.PreferredSubjects)

	w = do(t, s, http.MethodGet, "/api/profile", "ben", nil)
	assert.True(t, decode[profile.Profile](t, w).Default)
}

func TestContentEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/exercises", "anna", gin.H{"subject": "Physik", "topic": "Optik", "count": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"source":"fallback"`)
	assert.Equal(t, 2, strings.Count(w.Body.String(), `"question":`))

	w = do(t, s, http.MethodPost, "/api/flashcards", "anna", gin.H{"subject": "Physik", "topic": "Optik"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, s, http.MethodPost, "/api/study-plan", "anna", gin.H{"subject": "Physik", "days_left": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"source":"fallback"`)
}

// brokenSessions fails every call with the given error.
type brokenSessions struct{ err error }

func (b brokenSessions) Create(context.Context, identity.Learner, string, string, int) (*testsession.Started, error) {
	return nil, b.err
}

func (b brokenSessions) SubmitAnswer(context.Context, identity.Learner, string, int, []string) (*testsession.Submission, error) {
	return nil, b.err
}

func (b brokenSessions) Finish(context.Context, identity.Learner, string) (*testsession.Result, error) {
	return nil, b.err
}

func (b brokenSessions) Review(context.Context, identity.Learner, string) (*testsession.Result, error) {
	return nil, b.err
}

func (b brokenSessions) History(context.Context, identity.Learner, int) ([]testsession.Summary, error) {
	return nil, b.err
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"store", &testsession.ErrStoreUnavailable{Op: "get session", Err: errors.New("disk gone")}, http.StatusServiceUnavailable},
		{"closed", &testsession.ErrSessionClosed{ID: "t"}, http.StatusConflict},
		{"invalid", fmt.Errorf("%w: subject is empty", testsession.ErrInvalidInput), http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Deps{Sessions: brokenSessions{err: tt.err}})
			w := do(t, s, http.MethodPost, "/api/tests/t/finish", "anna", nil)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "boom")
			}
		})
	}
}
