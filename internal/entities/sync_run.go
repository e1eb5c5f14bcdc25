package entities

import (
	"time"
)

type SyncTrigger string

const (
	SyncTriggerStartup   SyncTrigger = "startup"
	SyncTriggerReconnect SyncTrigger = "reconnect"
	SyncTriggerRealtime  SyncTrigger = "realtime"
	SyncTriggerSchedule  SyncTrigger = "schedule"
	SyncTriggerManual    SyncTrigger = "manual"
)

type SyncStatus string

const (
	SyncStatusRunning   SyncStatus = "running"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusUpToDate  SyncStatus = "up_to_date"
	SyncStatusOffline   SyncStatus = "offline"
	SyncStatusFailed    SyncStatus = "failed"
)

// SyncRun is one orchestrator cycle, kept as history for the status endpoint.
type SyncRun struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Trigger     SyncTrigger `gorm:"size:20" json:"trigger"`
	Status      SyncStatus  `gorm:"size:20;index" json:"status"`
	Version     string      `gorm:"size:64" json:"version,omitempty"`
	Tables      int         `json:"tables"`
	Rows        int         `json:"rows"`
	Error       string      `gorm:"type:text" json:"error,omitempty"`
	StartedAt   time.Time   `gorm:"index" json:"started_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

func (SyncRun) TableName() string {
	return "sync_runs"
}
