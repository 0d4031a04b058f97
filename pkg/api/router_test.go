package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"scout-sync-go/pkg/jobs"
	"scout-sync-go/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

const (
	adminKey = "admin-secret"
	userKey  = "user-key"
)

type fakeUsers struct {
	created []string
}

func (f *fakeUsers) GetUserByAPIKey(_ context.Context, key string) (*models.User, error) {
	if key == userKey {
		return &models.User{ID: uuid.New(), Email: "scout@example.com"}, nil
	}
	return nil, errors.New("user not found")
}

func (f *fakeUsers) CreateUser(_ context.Context, email, apiKey string) (*models.User, error) {
	f.created = append(f.created, email)
	return &models.User{ID: uuid.New(), Email: email, APIKey: apiKey}, nil
}

type fakeSync struct {
	result    *models.SyncResult
	lastLimit int
}

func (f *fakeSync) Import(context.Context) (*models.SyncResult, error) { return f.result, nil }
func (f *fakeSync) Export(context.Context) (*models.SyncResult, error) { return f.result, nil }
func (f *fakeSync) History(_ context.Context, limit int) ([]models.SyncRecord, error) {
	f.lastLimit = limit
	return []models.SyncRecord{}, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *fakeSync) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// Job goroutines may log after the test body returns.
	log := zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
	m := jobs.NewManager(jobs.NewMemoryStore(), log)
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = m.Shutdown(ctx)
	})
	m.Register(models.JobPhotos, func(ctx context.Context, r *jobs.Reporter) error {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil
	})

	syncer := &fakeSync{result: &models.SyncResult{Success: true, Message: "ok", RecordsCreated: models.IntPtr(3)}}
	router := NewRouter(Deps{
		Tasks:    m,
		Sync:     syncer,
		Users:    &fakeUsers{},
		AdminKey: adminKey,
		Log:      log,
	})
	return router, syncer
}

func do(router http.Handler, method, path, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %s", w.Body.String())
	}
	return body.Detail
}

func TestAuthorization(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		key    string
		want   int
	}{
		{name: "health is public", method: http.MethodGet, path: "/health", want: http.StatusOK},
		{name: "missing key", method: http.MethodGet, path: "/api/v1/sync/history", want: http.StatusUnauthorized},
		{name: "unknown key", method: http.MethodGet, path: "/api/v1/sync/history", key: "nope", want: http.StatusUnauthorized},
		{name: "user reads history", method: http.MethodGet, path: "/api/v1/sync/history", key: userKey, want: http.StatusOK},
		{name: "user cannot start", method: http.MethodPost, path: "/api/v1/scraping/photos/start", key: userKey, want: http.StatusForbidden},
		{name: "user cannot sync", method: http.MethodPost, path: "/api/v1/sync/google-sheets", key: userKey, want: http.StatusForbidden},
		{name: "admin syncs", method: http.MethodPost, path: "/api/v1/sync/google-sheets", key: adminKey, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, tt.method, tt.path, tt.key, "")
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestScrapingLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, http.MethodPost, "/api/v1/scraping/photos/start", adminKey, "")
	if w.Code != http.StatusOK {
		t.Fatalf("start status = %d: %s", w.Code, w.Body.String())
	}
	var started models.StartTaskResponse
	if err := json.Unmarshal(w.Body.Bytes(), &started); err != nil || started.TaskID == "" {
		t.Fatalf("start body = %s", w.Body.String())
	}

	w = do(router, http.MethodGet, "/api/v1/scraping/status/"+started.TaskID, userKey, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d", w.Code)
	}
	var task models.ScrapingTask
	if err := json.Unmarshal(w.Body.Bytes(), &task); err != nil {
		t.Fatal(err)
	}
	if task.TaskID != started.TaskID || task.Status.IsTerminal() {
		t.Errorf("task = %+v, want live task %s", task, started.TaskID)
	}

	w = do(router, http.MethodPost, "/api/v1/scraping/cancel/"+started.TaskID, adminKey, "")
	if w.Code != http.StatusOK {
		t.Fatalf("cancel status = %d: %s", w.Code, w.Body.String())
	}

	w = do(router, http.MethodPost, "/api/v1/scraping/cancel/"+started.TaskID, adminKey, "")
	if w.Code != http.StatusConflict {
		t.Errorf("second cancel status = %d, want 409", w.Code)
	}
}

func TestUnknownTask(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, http.MethodGet, "/api/v1/scraping/status/missing", userKey, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if got := detail(t, w); got != "Task not found" {
		t.Errorf("detail = %q", got)
	}

	w = do(router, http.MethodPost, "/api/v1/scraping/cancel/missing", adminKey, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("cancel status = %d, want 404", w.Code)
	}
}

func TestUnregisteredJobKind(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, http.MethodPost, "/api/v1/scraping/data/start", adminKey, "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if detail(t, w) == "" {
		t.Error("error response without detail")
	}
}

func TestSyncHistoryLimit(t *testing.T) {
	router, syncer := newTestRouter(t)

	w := do(router, http.MethodGet, "/api/v1/sync/history?limit=5", userKey, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if syncer.lastLimit != 5 {
		t.Errorf("limit = %d, want 5", syncer.lastLimit)
	}
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("body = %s, want []", w.Body.String())
	}

	w = do(router, http.MethodGet, "/api/v1/sync/history?limit=abc", userKey, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", w.Code)
	}
}

func TestCreateUser(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, http.MethodPost, "/api/v1/users", "", `{"email":"scout@example.com"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var user models.User
	if err := json.Unmarshal(w.Body.Bytes(), &user); err != nil {
		t.Fatal(err)
	}
	if len(user.APIKey) != 64 {
		t.Errorf("api key length = %d, want 64", len(user.APIKey))
	}

	w = do(router, http.MethodPost, "/api/v1/users", "", `{"email":"not-an-email"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid email status = %d, want 400", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	do(router, http.MethodGet, "/health", "", "")

	w := do(router, http.MethodGet, "/metrics", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Error("metrics output lacks http_requests_total")
	}
}
