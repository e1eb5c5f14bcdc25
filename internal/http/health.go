package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/prayerbook/internal/database"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// PrayerCounter reports how many prayers the mirror holds.
type PrayerCounter interface {
	GetPrayerCount(ctx context.Context) (int64, error)
}

type HealthController struct {
	db      *database.Database
	engine  SyncEngine
	prayers PrayerCounter
	version string
}

func NewHealthController(db *database.Database, engine SyncEngine, prayers PrayerCounter, version string) *HealthController {
	return &HealthController{
		db:      db,
		engine:  engine,
		prayers: prayers,
		version: version,
	}
}

// Status reports database connectivity plus informational sync checks.
// Only a failing database makes the service unhealthy; an empty mirror is
// reported but still serves the API.
func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	// Check database connectivity
	if h.db != nil {
		sqlDB, err := h.db.DB.DB()
		if err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not configured"
	}

	if h.prayers != nil && status == "healthy" {
		count, err := h.prayers.GetPrayerCount(c.Request.Context())
		switch {
		case err != nil:
			checks["mirror"] = "error: " + err.Error()
		case count == 0:
			checks["mirror"] = "empty"
		default:
			checks["mirror"] = "ok"
		}
	}

	if h.engine != nil {
		st := h.engine.Status()
		checks["sync"] = string(st.State)
		if st.LastOutcome != "" {
			checks["last_sync"] = string(st.LastOutcome)
		}
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}
