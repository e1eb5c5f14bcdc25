package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/prayerbook/internal/entities"
	"github.com/mrlokans/prayerbook/internal/logger"
	"github.com/mrlokans/prayerbook/internal/syncer"
)

const (
	QueueFullSync      = "full_sync"
	QueueRefreshPayPal = "refresh_paypal"
)

// CycleRunner runs one sync cycle synchronously.
type CycleRunner interface {
	RunCycle(ctx context.Context, trigger entities.SyncTrigger) (syncer.Outcome, error)
}

// PayPalRefresher re-fetches the donation link.
type PayPalRefresher interface {
	RefreshPayPal(ctx context.Context) (string, error)
}

// FullSyncTask runs a sync cycle for the given trigger.
type FullSyncTask struct {
	Trigger entities.SyncTrigger `json:"trigger"`
}

// Config returns the queue configuration for sync tasks.
func (t FullSyncTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        QueueFullSync,
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// FullSyncProcessor creates a processor function for FullSyncTask. A cycle
// already in progress counts as done; any other failure is retried.
func FullSyncProcessor(runner CycleRunner) backlite.QueueProcessor[FullSyncTask] {
	return func(ctx context.Context, task FullSyncTask) error {
		trigger := task.Trigger
		if trigger == "" {
			trigger = entities.SyncTriggerManual
		}

		outcome, err := runner.RunCycle(ctx, trigger)
		if errors.Is(err, syncer.ErrSyncInProgress) {
			logger.Debug("queued sync skipped, cycle in progress", "trigger", trigger)
			return nil
		}
		if err != nil {
			return fmt.Errorf("sync cycle (%s): %w", outcome, err)
		}
		logger.Info("queued sync finished", "trigger", trigger, "outcome", outcome)
		return nil
	}
}

// NewFullSyncQueue creates a backlite queue for sync tasks.
func NewFullSyncQueue(runner CycleRunner) backlite.Queue {
	return backlite.NewQueue(FullSyncProcessor(runner))
}

// RefreshPayPalTask re-fetches the donation link without a full sync.
type RefreshPayPalTask struct{}

// Config returns the queue configuration for paypal refresh tasks.
func (t RefreshPayPalTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        QueueRefreshPayPal,
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   time.Hour,
			OnlyFailed: true,
		},
	}
}

// RefreshPayPalProcessor creates a processor function for RefreshPayPalTask.
func RefreshPayPalProcessor(refresher PayPalRefresher) backlite.QueueProcessor[RefreshPayPalTask] {
	return func(ctx context.Context, _ RefreshPayPalTask) error {
		link, err := refresher.RefreshPayPal(ctx)
		if err != nil {
			return err
		}
		logger.Debug("paypal link refreshed", "link", link)
		return nil
	}
}

// NewRefreshPayPalQueue creates a backlite queue for paypal refresh tasks.
func NewRefreshPayPalQueue(refresher PayPalRefresher) backlite.Queue {
	return backlite.NewQueue(RefreshPayPalProcessor(refresher))
}

// EnqueueFullSync queues a sync cycle and returns the task id.
func (c *Client) EnqueueFullSync(ctx context.Context, trigger entities.SyncTrigger) (string, error) {
	ids, err := c.Add(FullSyncTask{Trigger: trigger}).Ctx(ctx).Save()
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", QueueFullSync, err)
	}
	return ids[0], nil
}

// EnqueueRefreshPayPal queues a paypal link refresh and returns the task id.
func (c *Client) EnqueueRefreshPayPal(ctx context.Context) (string, error) {
	ids, err := c.Add(RefreshPayPalTask{}).Ctx(ctx).Save()
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", QueueRefreshPayPal, err)
	}
	return ids[0], nil
}
