package http

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/prayerbook/internal/database"
	"github.com/mrlokans/prayerbook/internal/database/categories"
	"github.com/mrlokans/prayerbook/internal/database/dbtest"
	"github.com/mrlokans/prayerbook/internal/database/favourites"
	"github.com/mrlokans/prayerbook/internal/database/prayers"
	dbsync "github.com/mrlokans/prayerbook/internal/database/sync"
	"github.com/mrlokans/prayerbook/internal/database/usercategories"
	"github.com/mrlokans/prayerbook/internal/entities"
	"github.com/mrlokans/prayerbook/internal/notices"
	"github.com/mrlokans/prayerbook/internal/query"
	"github.com/mrlokans/prayerbook/internal/syncer"
)

type fakeEngine struct {
	mu       sync.Mutex
	triggers []entities.SyncTrigger
	started  bool
	link     string
	err      error
}

func (f *fakeEngine) Status() syncer.Status {
	return syncer.Status{State: syncer.StateIdle, LastOutcome: syncer.OutcomeUpToDate}
}

func (f *fakeEngine) Trigger(trigger entities.SyncTrigger) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers = append(f.triggers, trigger)
	return f.started
}

func (f *fakeEngine) RefreshPayPal(ctx context.Context) (string, error) {
	return f.link, f.err
}

type fakeQueue struct {
	mu       sync.Mutex
	enqueued []string
	status   backlite.TaskStatus
}

func (f *fakeQueue) EnqueueFullSync(ctx context.Context, trigger entities.SyncTrigger) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enqueued = append(f.enqueued, "full_sync:"+string(trigger))
	return "task-full", nil
}

func (f *fakeQueue) EnqueueRefreshPayPal(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enqueued = append(f.enqueued, "refresh_paypal")
	return "task-paypal", nil
}

func (f *fakeQueue) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return f.status, nil
}

type testEnv struct {
	router   *gin.Engine
	db       *database.Database
	hub      *notices.Hub
	engine   *fakeEngine
	syncRepo *dbsync.Repository
}

func setupRouter(t *testing.T, mutate func(*RouterConfig)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.Open(t)
	dbtest.Seed(t, db.DB)

	hub := notices.NewHub(10)
	syncRepo := dbsync.NewRepository(db.DB, false)
	svc := query.NewService(query.Deps{
		Categories:     categories.NewRepository(db.DB),
		Prayers:        prayers.NewRepository(db.DB),
		Favorites:      favourites.NewRepository(db.DB),
		UserCategories: usercategories.NewRepository(db.DB),
		PayPalTable:    syncRepo,
		Notifier:       hub,
	}, query.Options{PageSize: 2})

	engine := &fakeEngine{started: true, link: "https://paypal.me/fresh"}
	cfg := RouterConfig{
		Database:   db,
		Queries:    svc,
		SyncEngine: engine,
		SyncRuns:   syncRepo,
		Events:     hub,
		Version:    "test",
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return &testEnv{router: NewRouter(cfg), db: db, hub: hub, engine: engine, syncRepo: syncRepo}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type prayerList struct {
	Data  []entities.PrayerWithTranslation `json:"data"`
	Count int                              `json:"count"`
}

func ids(rows []entities.PrayerWithTranslation) []int64 {
	out := make([]int64, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

func TestRouter_Health(t *testing.T) {
	env := setupRouter(t, nil)

	w := env.do(t, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[HealthResponse](t, w)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "test", health.Version)
	assert.Equal(t, "ok", health.Checks["database"])
	assert.Equal(t, "ok", health.Checks["mirror"])
	assert.Equal(t, "idle", health.Checks["sync"])
}

func TestCategoriesController(t *testing.T) {
	env := setupRouter(t, nil)

	t.Run("lists roots", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/categories", "")
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[struct {
			Data  []entities.Category `json:"data"`
			Count int                 `json:"count"`
		}](t, w)
		assert.Equal(t, 2, resp.Count)
	})

	t.Run("looks up by title case-insensitively", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/categories/lookup?title=abend", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int64(3), decode[entities.Category](t, w).ID)

		w = env.do(t, http.MethodGet, "/api/categories/lookup?title=nope", "")
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = env.do(t, http.MethodGet, "/api/categories/lookup", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("children of unknown category is 404", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/categories/99/children", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("descendants include the category itself", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/categories/3/descendants", "")
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[struct {
			IDs []int64 `json:"ids"`
		}](t, w)
		assert.ElementsMatch(t, []int64{3, 4}, resp.IDs)
	})

	t.Run("recursive prayers cover the subtree", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/categories/1/prayers?recursive=true", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.ElementsMatch(t, []int64{10, 11, 12, 13}, ids(decode[prayerList](t, w).Data))

		w = env.do(t, http.MethodGet, "/api/categories/1/prayers", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []int64{13}, ids(decode[prayerList](t, w).Data))
	})

	t.Run("invalid id", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/categories/abc", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPrayersController(t *testing.T) {
	env := setupRouter(t, nil)

	t.Run("by category title", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/prayers/by-category?title=Tagesgebete", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []int64{13, 11, 10}, ids(decode[prayerList](t, w).Data))

		w = env.do(t, http.MethodGet, "/api/prayers/by-category?title=Unbekannt", "")
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[prayerList](t, w)
		assert.Equal(t, 0, resp.Count)
		assert.NotNil(t, resp.Data)
	})

	t.Run("search", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/prayers/search?q=%20", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = env.do(t, http.MethodGet, "/api/prayers/search?q=zzz_no_match", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 0, decode[prayerList](t, w).Count)

		recent := env.hub.Recent(10)
		require.NotEmpty(t, recent)
		assert.Equal(t, notices.KindSearchNoResults, recent[len(recent)-1].Kind)
	})

	t.Run("latest pages", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/prayers/latest", "")
		require.Equal(t, http.StatusOK, w.Code)
		page := decode[struct {
			Data    []entities.PrayerWithTranslation `json:"data"`
			Limit   int                              `json:"limit"`
			HasMore bool                             `json:"has_more"`
		}](t, w)
		assert.Equal(t, 2, page.Limit)
		assert.True(t, page.HasMore)
		assert.Equal(t, []int64{15, 13}, ids(page.Data))

		w = env.do(t, http.MethodGet, "/api/prayers/latest?limit=5&offset=-1", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("falls back to English", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/prayers/14?lang=DE", "")
		require.Equal(t, http.StatusOK, w.Code)
		prayer := decode[entities.PrayerWithTranslation](t, w)
		require.NotNil(t, prayer.LanguageCode)
		assert.Equal(t, "EN", *prayer.LanguageCode)
	})

	t.Run("unknown prayer", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/prayers/999", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("languages", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/languages", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"count":2`)
	})
}

func TestFavouritesController(t *testing.T) {
	env := setupRouter(t, nil)

	w := env.do(t, http.MethodPost, "/api/prayers/10/favorite", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"changed":true`)

	w = env.do(t, http.MethodPost, "/api/prayers/10/favorite", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"changed":false`)

	w = env.do(t, http.MethodGet, "/api/prayers/10/favorite", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[favouriteState](t, w).IsFavorite)

	w = env.do(t, http.MethodPost, "/api/prayers/14/favorite/toggle", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_favorite":true`)

	w = env.do(t, http.MethodGet, "/api/favorites/count", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":2}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/favorites?lang=DE", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Data []entities.FavoritePrayer `json:"data"`
	}](t, w)
	require.Len(t, list.Data, 2)
	langs := map[int64]string{}
	for _, f := range list.Data {
		langs[f.ID] = f.ResolvedLanguage
	}
	assert.Equal(t, "DE", langs[10])
	assert.Equal(t, "EN", langs[14])

	w = env.do(t, http.MethodDelete, "/api/prayers/10/favorite", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"changed":true`)

	w = env.do(t, http.MethodPost, "/api/prayers/invalid/favorite", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserCategoriesController(t *testing.T) {
	env := setupRouter(t, nil)

	w := env.do(t, http.MethodPost, "/api/user-categories", `{"title":"Abends","color":"#aabbcc"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[entities.UserCategory](t, w)
	assert.Equal(t, "#AABBCC", created.Color)

	w = env.do(t, http.MethodPost, "/api/user-categories", `{"title":" abends "}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/api/user-categories", `{"title":"Bunt","color":"red"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/user-categories", `{"title":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	path := "/api/user-categories/" + itoa(created.ID)
	w = env.do(t, http.MethodPost, path+"/prayers/11", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, path+"/prayers", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int64{11}, ids(decode[prayerList](t, w).Data))

	w = env.do(t, http.MethodDelete, path+"/prayers/11", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/user-categories/999/prayers", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/user-categories", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":0`)
}

func TestSyncController(t *testing.T) {
	t.Run("triggers the engine without a task queue", func(t *testing.T) {
		env := setupRouter(t, nil)

		w := env.do(t, http.MethodPost, "/api/sync/run", "")
		require.Equal(t, http.StatusAccepted, w.Code)
		assert.Contains(t, w.Body.String(), `"started":true`)
		assert.Equal(t, []entities.SyncTrigger{entities.SyncTriggerManual}, env.engine.triggers)
	})

	t.Run("enqueues with a task queue", func(t *testing.T) {
		queue := &fakeQueue{}
		env := setupRouter(t, func(cfg *RouterConfig) { cfg.TaskClient = queue })

		w := env.do(t, http.MethodPost, "/api/sync/run", "")
		require.Equal(t, http.StatusAccepted, w.Code)
		assert.Contains(t, w.Body.String(), "task-full")
		assert.Empty(t, env.engine.triggers)

		w = env.do(t, http.MethodPost, "/api/paypal/refresh", "")
		require.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, []string{"full_sync:manual", "refresh_paypal"}, queue.enqueued)
	})

	t.Run("status includes recorded runs", func(t *testing.T) {
		env := setupRouter(t, nil)
		run, err := env.syncRepo.RecordRun(context.Background(), entities.SyncTriggerStartup)
		require.NoError(t, err)
		require.NoError(t, env.syncRepo.CompleteRun(context.Background(), run, entities.SyncStatusCompleted, "v1", nil, nil))

		w := env.do(t, http.MethodGet, "/api/sync/status", "")
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[SyncStatusResponse](t, w)
		assert.Equal(t, syncer.StateIdle, resp.Engine.State)
		require.Len(t, resp.Runs, 1)
		assert.Equal(t, "v1", resp.Runs[0].Version)
		assert.Nil(t, resp.Scheduler)
	})

	t.Run("paypal link and refresh", func(t *testing.T) {
		env := setupRouter(t, nil)
		_, err := env.syncRepo.SyncPayPal(context.Background(), "https://paypal.me/stored")
		require.NoError(t, err)

		w := env.do(t, http.MethodGet, "/api/paypal", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"link":"https://paypal.me/stored"}`, w.Body.String())

		w = env.do(t, http.MethodPost, "/api/paypal/refresh", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"link":"https://paypal.me/fresh"}`, w.Body.String())

		env.engine.err = errors.New("offline")
		w = env.do(t, http.MethodPost, "/api/paypal/refresh", "")
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("manual triggers are rate limited", func(t *testing.T) {
		env := setupRouter(t, func(cfg *RouterConfig) {
			cfg.TriggerRPS = 0.001
			cfg.TriggerBurst = 1
		})

		w := env.do(t, http.MethodPost, "/api/sync/run", "")
		assert.Equal(t, http.StatusAccepted, w.Code)
		w = env.do(t, http.MethodPost, "/api/sync/run", "")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})
}

func TestTasksController(t *testing.T) {
	queue := &fakeQueue{status: backlite.TaskStatusSuccess}
	env := setupRouter(t, func(cfg *RouterConfig) { cfg.TaskClient = queue })

	w := env.do(t, http.MethodGet, "/api/tasks/types", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "full_sync")

	w = env.do(t, http.MethodPost, "/api/tasks/run/refresh_paypal", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "task-paypal")

	w = env.do(t, http.MethodPost, "/api/tasks/run/unknown", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/tasks/task-paypal", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"task-paypal","status":"success"}`, w.Body.String())
}

func TestEventsController_Recent(t *testing.T) {
	env := setupRouter(t, nil)
	env.hub.Notify(notices.KindSyncError, "")
	env.hub.Notify(notices.KindOfflineNoData, "")

	w := env.do(t, http.MethodGet, "/api/notices/recent?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		Data []notices.Event `json:"data"`
	}](t, w)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, notices.KindOfflineNoData, resp.Data[0].Kind)
	assert.True(t, resp.Data[0].Blocking)
}

func TestEventsController_Stream(t *testing.T) {
	env := setupRouter(t, nil)
	env.hub.Notify(notices.KindSyncError, "replayed")

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 64)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	waitFor := func(substr string) {
		t.Helper()
		for {
			select {
			case line, ok := <-lines:
				require.True(t, ok, "stream closed before %q", substr)
				if strings.Contains(line, substr) {
					return
				}
			case <-ctx.Done():
				t.Fatalf("timed out waiting for %q", substr)
			}
		}
	}

	waitFor("replayed")
	require.Eventually(t, func() bool { return env.hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)
	env.hub.Notify(notices.KindSearchNoResults, "live notice")
	waitFor("live notice")
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
