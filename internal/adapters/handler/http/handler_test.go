package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-progress/internal/adapters/cache"
	adapterHTTP "github.com/comitanigiacomo/kanso-progress/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-progress/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-progress/internal/core/services"
)

// bearerAsUserID accepts any token and treats it as the user id.
type bearerAsUserID struct{}

func (bearerAsUserID) ValidateToken(ctx context.Context, token string) (string, error) {
	if token == "expired" {
		return "", errors.New("token expired")
	}
	return token, nil
}

type fixedPlanner struct{}

func (fixedPlanner) SuggestMilestones(ctx context.Context, title, description string) ([]string, error) {
	return []string{"Plan", "Do", "Review"}, nil
}

type failingPinger struct{}

func (failingPinger) Ping(ctx context.Context) error {
	return errors.New("down")
}

type testServer struct {
	router *gin.Engine
	store  *repository.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, nil, 0)
}

func newTestServerWith(t *testing.T, rdb *redis.Client, rateLimit int) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	goalSvc := services.NewGoalService(store.Goals(), store.Tasks(), fixedPlanner{})
	taskSvc := services.NewTaskService(store.Tasks())
	activitySvc := services.NewActivityService(store.Activity(), store.Goals(), store.Tasks())
	authSvc := services.NewAuthService(store.Users())

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AuthHandler:     adapterHTTP.NewAuthHandler(authSvc, nil),
		GoalHandler:     adapterHTTP.NewGoalHandler(goalSvc),
		TaskHandler:     adapterHTTP.NewTaskHandler(taskSvc),
		ActivityHandler: adapterHTTP.NewActivityHandler(activitySvc, time.UTC),
		TokenService:    bearerAsUserID{},
		StoreName:       "memory",
		Redis:           rdb,
		RateLimit:       rateLimit,
		StartTime:       time.Now(),
	})

	return &testServer{router: router, store: store}
}

func (s *testServer) do(method, path, userID, body string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+userID)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type goalJSON struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	Status            string `json:"status"`
	Progress          int    `json:"progress"`
	SuggestedProgress int    `json:"suggested_progress"`
	Streak            int    `json:"streak"`
	Milestones []struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Completed bool   `json:"completed"`
	} `json:"milestones"`
	Logs []struct {
		Text string `json:"text"`
	} `json:"logs"`
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"disabled"`)
	assert.Contains(t, w.Body.String(), `"store":"memory"`)
}

func TestHealth_StoreDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AuthHandler:     adapterHTTP.NewAuthHandler(nil, nil),
		GoalHandler:     adapterHTTP.NewGoalHandler(nil),
		TaskHandler:     adapterHTTP.NewTaskHandler(nil),
		ActivityHandler: adapterHTTP.NewActivityHandler(nil, nil),
		TokenService:    bearerAsUserID{},
		Store:           failingPinger{},
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"unreachable"`)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/api/v1/goals", "/api/v1/tasks", "/api/v1/stats", "/api/v1/activity/summary"} {
		w := srv.do(http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := srv.do(http.MethodGet, "/api/v1/goals", "expired", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGoalLifecycle(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(http.MethodPost, "/api/v1/goals", "user-1",
		`{"title":"Learn Go","category":"study","target_date":"2026-12-31","milestones":["Tour","Book"]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[goalJSON](t, w)
	require.Len(t, created.Milestones, 2)
	assert.Equal(t, "pending", created.Status)

	t.Run("Get and list", func(t *testing.T) {
		w := srv.do(http.MethodGet, "/api/v1/goals/"+created.ID, "user-1", "")
		assert.Equal(t, http.StatusOK, w.Code)

		w = srv.do(http.MethodGet, "/api/v1/goals", "user-1", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]goalJSON](t, w), 1)
	})

	t.Run("Other users are forbidden", func(t *testing.T) {
		w := srv.do(http.MethodGet, "/api/v1/goals/"+created.ID, "intruder", "")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"forbidden"`)

		w = srv.do(http.MethodPut, "/api/v1/goals/"+created.ID+"/progress", "intruder", `{"progress":50}`)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Unknown goal is 404", func(t *testing.T) {
		w := srv.do(http.MethodPut, "/api/v1/goals/missing/progress", "user-1", `{"progress":50}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"not_found"`)
	})

	t.Run("Progress out of range is 400", func(t *testing.T) {
		w := srv.do(http.MethodPut, "/api/v1/goals/"+created.ID+"/progress", "user-1", `{"progress":101}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"validation_error"`)
	})

	t.Run("Milestones and log update", func(t *testing.T) {
		body := `{"milestones":[{"id":"` + created.Milestones[0].ID + `","title":"Tour","completed":true},` +
			`{"id":"` + created.Milestones[1].ID + `","title":"Book"}],"log_text":"finished the tour"}`
		w := srv.do(http.MethodPut, "/api/v1/goals/"+created.ID+"/progress", "user-1", body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		updated := decode[goalJSON](t, w)
		assert.True(t, updated.Milestones[0].Completed)
		assert.Equal(t, 50, updated.SuggestedProgress, "one of two milestones done")
		assert.Zero(t, updated.Progress, "the hint never overrides progress")
		require.Len(t, updated.Logs, 1)
		assert.Equal(t, "finished the tour", updated.Logs[0].Text)
		assert.Equal(t, 1, updated.Streak)
	})

	t.Run("Completion", func(t *testing.T) {
		w := srv.do(http.MethodPut, "/api/v1/goals/"+created.ID+"/progress", "user-1", `{"progress":100}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "completed", decode[goalJSON](t, w).Status)
	})

	t.Run("Archive requires learning", func(t *testing.T) {
		w := srv.do(http.MethodPost, "/api/v1/goals/"+created.ID+"/archive", "user-1", `{"learning":"  "}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = srv.do(http.MethodPost, "/api/v1/goals/"+created.ID+"/archive", "user-1", `{"learning":"small steps"}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = srv.do(http.MethodGet, "/api/v1/goals/archived", "user-1", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "small steps")

		w = srv.do(http.MethodGet, "/api/v1/goals/"+created.ID, "user-1", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGoalCreate_Validation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"Missing title", `{"description":"no title"}`},
		{"Bad date", `{"title":"Run","start_date":"tomorrow"}`},
		{"Target before start", `{"title":"Run","start_date":"2026-05-01","target_date":"2026-04-01"}`},
		{"Malformed JSON", `{"title":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := srv.do(http.MethodPost, "/api/v1/goals", "user-1", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestGoalDelete(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(http.MethodPost, "/api/v1/goals", "user-1", `{"title":"Temporary"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[goalJSON](t, w).ID

	assert.Equal(t, http.StatusForbidden, srv.do(http.MethodDelete, "/api/v1/goals/"+id, "user-2", "").Code)
	assert.Equal(t, http.StatusNoContent, srv.do(http.MethodDelete, "/api/v1/goals/"+id, "user-1", "").Code)
	assert.Equal(t, http.StatusNotFound, srv.do(http.MethodDelete, "/api/v1/goals/"+id, "user-1", "").Code)
}

func TestGoalExport(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(http.MethodGet, "/api/v1/goals/export", "user-1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.Equal(t, http.StatusCreated, srv.do(http.MethodPost, "/api/v1/goals", "user-1", `{"title":"Write, edit"}`).Code)
	require.Equal(t, http.StatusCreated, srv.do(http.MethodPost, "/api/v1/tasks", "user-1", `{"title":"Buy pens"}`).Code)

	w = srv.do(http.MethodGet, "/api/v1/goals/export", "user-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "goals.csv")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "title,type,status,progress,createdAt", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], `"Write, edit",modern,pending,0,`))
	assert.True(t, strings.HasPrefix(lines[2], "Buy pens,traditional,pending,0,"))
}

func TestGoalPlan(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(http.MethodPost, "/api/v1/goals/plan", "user-1", `{"title":"Run a marathon"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"milestones":["Plan","Do","Review"]}`, w.Body.String())

	w = srv.do(http.MethodPost, "/api/v1/goals/plan", "user-1", `{"title":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskLifecycle(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(http.MethodPost, "/api/v1/tasks", "user-1", `{"title":"Call mom","priority":"high","due_date":"2026-04-02"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	task := decode[map[string]any](t, w)
	id := task["id"].(string)
	assert.Equal(t, "high", task["priority"])

	w = srv.do(http.MethodPost, "/api/v1/tasks", "user-1", `{"title":"Bad","priority":"urgent"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(http.MethodPut, "/api/v1/tasks/"+id+"/complete", "user-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "completed", decode[map[string]any](t, w)["status"])

	w = srv.do(http.MethodPut, "/api/v1/tasks/"+id+"/reopen", "user-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pending", decode[map[string]any](t, w)["status"])

	w = srv.do(http.MethodPut, "/api/v1/tasks/"+id+"/complete", "user-2", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = srv.do(http.MethodGet, "/api/v1/tasks", "user-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	assert.Equal(t, http.StatusNoContent, srv.do(http.MethodDelete, "/api/v1/tasks/"+id, "user-1", "").Code)
	assert.Equal(t, http.StatusNotFound, srv.do(http.MethodDelete, "/api/v1/tasks/"+id, "user-1", "").Code)
}

func TestActivityAndStats(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(http.MethodPost, "/api/v1/activity", "user-1", `{"message":"<b>shipped</b> the parser"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "shipped the parser", decode[map[string]any](t, w)["message"])

	w = srv.do(http.MethodPost, "/api/v1/activity", "user-1", `{"message":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	t.Run("Summary for today", func(t *testing.T) {
		w := srv.do(http.MethodGet, "/api/v1/activity/summary?tz=UTC", "user-1", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		summary := decode[struct {
			Today      string            `json:"today"`
			Heatmap    []json.RawMessage `json:"heatmap"`
			Streak     int               `json:"streak"`
			TotalCount int               `json:"total_count"`
		}](t, w)
		assert.Equal(t, time.Now().UTC().Format("2006-01-02"), summary.Today)
		assert.Len(t, summary.Heatmap, 365)
		assert.Equal(t, 1, summary.Streak)
		assert.Equal(t, 1, summary.TotalCount)
	})

	t.Run("Summary for an explicit past day", func(t *testing.T) {
		w := srv.do(http.MethodGet, "/api/v1/activity/summary?date=2020-01-15&tz=Europe/Rome", "user-1", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"today":"2020-01-15"`)
		assert.Contains(t, w.Body.String(), `"total_count":0`)
	})

	t.Run("Bad query parameters", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, srv.do(http.MethodGet, "/api/v1/stats?tz=Mars/Base", "user-1", "").Code)
		assert.Equal(t, http.StatusBadRequest, srv.do(http.MethodGet, "/api/v1/stats?date=15-01-2020", "user-1", "").Code)
	})

	t.Run("Stats", func(t *testing.T) {
		require.Equal(t, http.StatusCreated, srv.do(http.MethodPost, "/api/v1/tasks", "user-1", `{"title":"Todo"}`).Code)

		w := srv.do(http.MethodGet, "/api/v1/stats", "user-1", "")
		require.Equal(t, http.StatusOK, w.Code)

		stats := decode[struct {
			Consistency  int `json:"consistency"`
			PendingCount int `json:"pending_count"`
			Trend        []struct {
				Name  string `json:"name"`
				Count int    `json:"count"`
			} `json:"trend"`
		}](t, w)
		assert.Equal(t, 3, stats.Consistency)
		assert.Equal(t, 1, stats.PendingCount)
		require.Len(t, stats.Trend, 7)
		assert.Equal(t, 1, stats.Trend[6].Count)
	})
}

func TestRegisterAndLoginRoutesArePublic(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(http.MethodPost, "/api/v1/auth/register", "", `{"name":"Ada","email":"ada@kanso.app","password":"password123"}`)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = srv.do(http.MethodPost, "/api/v1/auth/register", "", `{"name":"Ada","email":"ada@kanso.app","password":"password123"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAccountRoutes(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(http.MethodPost, "/api/v1/auth/register", "", `{"name":"Ada","email":"ada@kanso.app","password":"password123"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	registered := decode[struct {
		ID string `json:"id"`
	}](t, w)

	w = srv.do(http.MethodPost, "/api/v1/goals", registered.ID, `{"title":"Learn Go"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	t.Run("Me requires a token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, srv.do(http.MethodGet, "/api/v1/auth/me", "", "").Code)
	})

	t.Run("Me returns the account", func(t *testing.T) {
		w := srv.do(http.MethodGet, "/api/v1/auth/me", registered.ID, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"email":"ada@kanso.app"`)
		assert.NotContains(t, w.Body.String(), "password")
	})

	t.Run("Delete rejects a wrong password", func(t *testing.T) {
		w := srv.do(http.MethodDelete, "/api/v1/auth/me", registered.ID, `{"password":"nope"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Delete removes the account and its goals", func(t *testing.T) {
		w := srv.do(http.MethodDelete, "/api/v1/auth/me", registered.ID, `{"password":"password123"}`)
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

		assert.Equal(t, http.StatusNotFound, srv.do(http.MethodGet, "/api/v1/auth/me", registered.ID, "").Code)

		goals, err := srv.store.Goals().ListByUserID(context.Background(), registered.ID)
		require.NoError(t, err)
		assert.Empty(t, goals)
	})
}

func TestRateLimitIsPerUserOnProtectedRoutes(t *testing.T) {
	env := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}
	rdb, err := cache.NewRedisClient(context.Background(), cache.Options{
		Addr:     env("REDIS_HOST", "localhost") + ":" + env("REDIS_PORT", "6379"),
		Password: env("REDIS_PASSWORD", "secret_redis_pass_local"),
		DB:       4,
	})
	if err != nil {
		t.Skipf("Skipping rate limit routing test: %v", err)
	}
	defer rdb.Close()
	ctx := context.Background()
	require.NoError(t, rdb.FlushDB(ctx).Err())

	srv := newTestServerWith(t, rdb, 1)

	assert.Equal(t, http.StatusOK, srv.do(http.MethodGet, "/api/v1/goals", "alice", "").Code)
	assert.Equal(t, http.StatusOK, srv.do(http.MethodGet, "/api/v1/goals", "bob", "").Code, "users behind one address have their own budget")
	assert.Equal(t, http.StatusTooManyRequests, srv.do(http.MethodGet, "/api/v1/goals", "alice", "").Code)

	n, err := rdb.Exists(ctx, "rate_limit:user:alice", "rate_limit:user:bob").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.Equal(t, http.StatusOK, srv.do(http.MethodGet, "/health", "", "").Code, "health is never limited")
}
