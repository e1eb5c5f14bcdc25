package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/prayerbook/internal/entities"
	"github.com/mrlokans/prayerbook/internal/scheduler"
	"github.com/mrlokans/prayerbook/internal/settingsstore"
	"github.com/mrlokans/prayerbook/internal/syncer"
)

const recentRunsLimit = 10

// SyncEngine is the part of the orchestrator the sync endpoints drive.
type SyncEngine interface {
	Status() syncer.Status
	Trigger(trigger entities.SyncTrigger) bool
	RefreshPayPal(ctx context.Context) (string, error)
}

// SyncStateReader exposes the persisted outcome of the last cycle.
type SyncStateReader interface {
	GetSyncStatus(ctx context.Context) (settingsstore.SyncStatus, error)
}

// RunHistory lists recorded sync runs.
type RunHistory interface {
	LatestRuns(ctx context.Context, limit int) ([]entities.SyncRun, error)
}

// ScheduleInfo describes the periodic version check.
type ScheduleInfo interface {
	IsRunning() bool
	Schedule() string
	GetNextRunTime() *time.Time
}

// SyncEnqueuer hands sync work to the background task queue.
type SyncEnqueuer interface {
	EnqueueFullSync(ctx context.Context, trigger entities.SyncTrigger) (string, error)
	EnqueueRefreshPayPal(ctx context.Context) (string, error)
}

// PayPalReader returns the current donation link.
type PayPalReader interface {
	GetPayPalLink(ctx context.Context) (string, error)
}

// SyncController exposes sync status and manual triggers. Every collaborator
// except the engine is optional.
type SyncController struct {
	engine    SyncEngine
	state     SyncStateReader
	runs      RunHistory
	scheduler ScheduleInfo
	enqueuer  SyncEnqueuer
	paypal    PayPalReader
}

func NewSyncController(engine SyncEngine, state SyncStateReader, runs RunHistory, sched ScheduleInfo, enqueuer SyncEnqueuer, paypal PayPalReader) *SyncController {
	return &SyncController{
		engine:    engine,
		state:     state,
		runs:      runs,
		scheduler: sched,
		enqueuer:  enqueuer,
		paypal:    paypal,
	}
}

type scheduleStatus struct {
	Running     bool       `json:"running"`
	Schedule    string     `json:"schedule"`
	Description string     `json:"description"`
	NextRun     *time.Time `json:"next_run,omitempty"`
}

// SyncStatusResponse is returned by GET /api/sync/status.
type SyncStatusResponse struct {
	Engine    syncer.Status             `json:"engine"`
	Stored    *settingsstore.SyncStatus `json:"stored,omitempty"`
	Runs      []entities.SyncRun        `json:"runs"`
	Scheduler *scheduleStatus           `json:"scheduler,omitempty"`
}

// GET /api/sync/status
func (sc *SyncController) Status(c *gin.Context) {
	ctx := c.Request.Context()
	resp := SyncStatusResponse{
		Engine: sc.engine.Status(),
		Runs:   []entities.SyncRun{},
	}

	if sc.state != nil {
		stored, err := sc.state.GetSyncStatus(ctx)
		if err != nil {
			respondInternalError(c, err, "read sync status")
			return
		}
		resp.Stored = &stored
	}
	if sc.runs != nil {
		runs, err := sc.runs.LatestRuns(ctx, recentRunsLimit)
		if err != nil {
			respondInternalError(c, err, "list sync runs")
			return
		}
		if runs != nil {
			resp.Runs = runs
		}
	}
	if sc.scheduler != nil {
		schedule := sc.scheduler.Schedule()
		resp.Scheduler = &scheduleStatus{
			Running:     sc.scheduler.IsRunning(),
			Schedule:    schedule,
			Description: scheduler.GetCronDescription(schedule),
			NextRun:     sc.scheduler.GetNextRunTime(),
		}
	}

	c.JSON(http.StatusOK, resp)
}

// Run starts a manual sync. With a task queue the cycle is enqueued and the
// task id returned; otherwise the orchestrator is triggered directly.
// POST /api/sync/run
func (sc *SyncController) Run(c *gin.Context) {
	if sc.enqueuer != nil {
		taskID, err := sc.enqueuer.EnqueueFullSync(c.Request.Context(), entities.SyncTriggerManual)
		if err != nil {
			respondInternalError(c, err, "enqueue sync")
			return
		}
		respondAccepted(c, "sync enqueued", gin.H{"task_id": taskID})
		return
	}

	started := sc.engine.Trigger(entities.SyncTriggerManual)
	message := "sync started"
	if !started {
		message = "sync already running"
	}
	respondAccepted(c, message, gin.H{"started": started})
}

// GET /api/paypal
func (sc *SyncController) PayPal(c *gin.Context) {
	if sc.paypal == nil {
		c.JSON(http.StatusOK, gin.H{"link": ""})
		return
	}
	link, err := sc.paypal.GetPayPalLink(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "read paypal link")
		return
	}
	c.JSON(http.StatusOK, gin.H{"link": link})
}

// RefreshPayPal re-reads the donation link from the remote dataset.
// POST /api/paypal/refresh
func (sc *SyncController) RefreshPayPal(c *gin.Context) {
	if sc.enqueuer != nil {
		taskID, err := sc.enqueuer.EnqueueRefreshPayPal(c.Request.Context())
		if err != nil {
			respondInternalError(c, err, "enqueue paypal refresh")
			return
		}
		respondAccepted(c, "paypal refresh enqueued", gin.H{"task_id": taskID})
		return
	}

	link, err := sc.engine.RefreshPayPal(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "paypal refresh failed", Code: codeUnavailable})
		return
	}
	c.JSON(http.StatusOK, gin.H{"link": link})
}
