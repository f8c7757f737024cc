package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/mkorolev/callcue/internal/call"
	"github.com/mkorolev/callcue/internal/domain"
	"github.com/mkorolev/callcue/internal/speech"
)

// fakeRepo is an in-memory store.Repository.
type fakeRepo struct {
	mu       sync.Mutex
	settings *domain.Settings
	saveErr  error
	pingErr  error
}

func (f *fakeRepo) GetSettings(context.Context) (domain.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settings == nil {
		return domain.DefaultSettings(), nil
	}
	return *f.settings, nil
}

func (f *fakeRepo) SaveSettings(_ context.Context, settings domain.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.settings = &settings
	return nil
}

func (f *fakeRepo) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pingErr
}

func (f *fakeRepo) Close() error { return nil }

func (f *fakeRepo) saved() *domain.Settings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings
}

func newTestHandler(t *testing.T) (*Handler, *fakeRepo, *call.Scheduler) {
	t.Helper()
	repo := &fakeRepo{}
	sched := call.New(speech.NewRelay(nil), domain.DefaultSettings(), call.DefaultTimings(), nil, nil, nil)
	t.Cleanup(sched.Shutdown)
	return NewHandler(repo, sched), repo, sched
}

func newTestRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

func TestGetSettings(t *testing.T) {
	h, _, _ := newTestHandler(t)
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/settings", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var got domain.Settings
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got.Mode != domain.ModeSuggestive {
		t.Errorf("Expected default mode, got %q", got.Mode)
	}
}

func TestUpdateSettings(t *testing.T) {
	h, repo, sched := newTestHandler(t)
	r := newTestRouter(h)

	payload := `{
		"mode": "assertive",
		"topics": [{"title": "  Budget  "}],
		"avoid_topics": ["Layoffs"],
		"conversation_goal": "agree on scope"
	}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(payload)))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body)
	}

	var got domain.Settings
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(got.Topics) != 1 || got.Topics[0].Title != "Budget" {
		t.Errorf("Expected normalized topic title, got %+v", got.Topics)
	}
	if got.Topics[0].ID == "" {
		t.Error("Expected minted topic id")
	}

	if saved := repo.saved(); saved == nil || saved.Mode != domain.ModeAssertive {
		t.Errorf("Settings not persisted: %+v", saved)
	}
	if applied := sched.Settings(); applied.ConversationGoal != "agree on scope" {
		t.Errorf("Settings not applied to scheduler: %+v", applied)
	}
}

func TestUpdateSettingsRejectsUnknownMode(t *testing.T) {
	h, repo, _ := newTestHandler(t)
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(`{"mode": "loud"}`)))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if repo.saved() != nil {
		t.Error("Invalid settings must not be persisted")
	}
}

func TestUpdateSettingsRejectsMalformedBody(t *testing.T) {
	h, _, _ := newTestHandler(t)
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(`{`)))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestUpdateSettingsSaveFailure(t *testing.T) {
	h, repo, _ := newTestHandler(t)
	repo.saveErr = errors.New("disk full")
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(`{"mode": "silent"}`)))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}

func TestCallLifecycle(t *testing.T) {
	h, _, _ := newTestHandler(t)
	r := newTestRouter(h)

	// Before any call.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/call", nil))
	var snapshot struct {
		State        domain.CallState     `json:"state"`
		Conversation *domain.Conversation `json:"conversation"`
	}
	if err := json.NewDecoder(w.Body).Decode(&snapshot); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if snapshot.State != domain.CallIdle || snapshot.Conversation != nil {
		t.Errorf("Expected idle snapshot, got %+v", snapshot)
	}

	// Start.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/call/start", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if err := json.NewDecoder(w.Body).Decode(&snapshot); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if snapshot.State != domain.CallActive || snapshot.Conversation == nil || snapshot.Conversation.ID == "" {
		t.Fatalf("Expected active call with conversation, got %+v", snapshot)
	}

	// Message.
	w = httptest.NewRecorder()
	body := bytes.NewReader([]byte(`{"text": "am I talking too much?"}`))
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/call/message", body))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d: %s", w.Code, w.Body)
	}

	// End.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/call/end", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d: %s", w.Code, w.Body)
	}
}

func TestEndCallWithoutActiveCall(t *testing.T) {
	h, _, _ := newTestHandler(t)
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/call/end", nil))
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}
}

func TestSendMessageValidation(t *testing.T) {
	h, _, _ := newTestHandler(t)
	r := newTestRouter(h)

	// No active call.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/call/message", strings.NewReader(`{"text": "hi"}`)))
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}

	// Blank text.
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/call/start", nil))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/call/message", strings.NewReader(`{"text": "   "}`)))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	repo := &fakeRepo{}
	h := NewHealthHandler(repo)
	r := chi.NewRouter()
	h.RegisterHealth(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	repo.pingErr = errors.New("database is locked")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}
