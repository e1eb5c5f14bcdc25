// Package syncer decides when to pull the remote dataset and applies it to
// the local mirror.
//
// A cycle checks connectivity, compares the cached dataset version with the
// remote one and runs a full sync only when they differ. Only one cycle runs
// at a time; triggers arriving meanwhile are dropped. Bursts of triggers from
// connectivity flapping or realtime events go through a Debouncer.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mrlokans/prayerbook/internal/database"
	dbsync "github.com/mrlokans/prayerbook/internal/database/sync"
	"github.com/mrlokans/prayerbook/internal/entities"
	"github.com/mrlokans/prayerbook/internal/logger"
	"github.com/mrlokans/prayerbook/internal/notices"
	"github.com/mrlokans/prayerbook/internal/remote"
)

// ErrSyncInProgress is returned when a cycle is triggered while another runs.
var ErrSyncInProgress = errors.New("sync already in progress")

const defaultDebounce = 3 * time.Second

type State string

const (
	StateIdle                 State = "idle"
	StateCheckingConnectivity State = "checking_connectivity"
	StateCheckingVersion      State = "checking_version"
	StateFullSync             State = "full_sync"
)

type Outcome string

const (
	OutcomeUpToDate           Outcome = "up_to_date"
	OutcomeSynced             Outcome = "synced"
	OutcomeOfflineWithData    Outcome = "offline_with_data"
	OutcomeOfflineNoData      Outcome = "offline_no_data"
	OutcomeVersionCheckFailed Outcome = "version_check_failed"
	OutcomeSyncFailed         Outcome = "sync_failed"
	OutcomeSkipped            Outcome = "skipped"
)

func (o Outcome) runStatus() entities.SyncStatus {
	switch o {
	case OutcomeSynced:
		return entities.SyncStatusCompleted
	case OutcomeUpToDate:
		return entities.SyncStatusUpToDate
	case OutcomeOfflineWithData, OutcomeOfflineNoData:
		return entities.SyncStatusOffline
	default:
		return entities.SyncStatusFailed
	}
}

// Deps are the collaborators of an Orchestrator. Runs and Realtime are optional.
type Deps struct {
	Schema   Schema
	Prayers  PrayerCounter
	Store    Store
	Runs     RunRecorder
	Remote   RemoteSource
	Realtime ChangeSubscriber
	Probe    ConnectivityProbe
	KV       KeyValueStore
	Notifier notices.Notifier
	Events   notices.Publisher
}

type Options struct {
	Debounce        time.Duration
	RealtimeEnabled bool
}

// Status is a snapshot for the status endpoint.
type Status struct {
	State         State         `json:"state"`
	Debounce      DebounceState `json:"debounce"`
	LastOutcome   Outcome       `json:"last_outcome,omitempty"`
	LastError     string        `json:"last_error,omitempty"`
	LastTrigger   string        `json:"last_trigger,omitempty"`
	LastFinished  *time.Time    `json:"last_finished,omitempty"`
	RealtimeAlive bool          `json:"realtime_alive"`
}

type Orchestrator struct {
	deps Deps
	opts Options
	log  *log.Logger

	running   atomic.Bool
	state     atomic.Value
	debouncer *Debouncer
	pending   atomic.Value

	mu           sync.Mutex
	lastOutcome  Outcome
	lastErr      error
	lastTrigger  entities.SyncTrigger
	lastFinished *time.Time
	realtimeUp   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(deps Deps, opts Options) *Orchestrator {
	if deps.Notifier == nil {
		deps.Notifier = notices.Discard
	}
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		deps:   deps,
		opts:   opts,
		log:    logger.With("sync"),
		ctx:    ctx,
		cancel: cancel,
	}
	o.state.Store(StateIdle)
	o.pending.Store(entities.SyncTriggerManual)
	o.debouncer = NewDebouncer(opts.Debounce, func() {
		trigger := o.pending.Load().(entities.SyncTrigger)
		if _, err := o.RunCycle(o.ctx, trigger); err != nil && !errors.Is(err, ErrSyncInProgress) {
			o.log.Warn("debounced sync cycle failed", "trigger", trigger, "err", err)
		}
	})
	return o
}

// State reports where the current cycle is.
func (o *Orchestrator) State() State {
	return o.state.Load().(State)
}

func (o *Orchestrator) IsRunning() bool {
	return o.running.Load()
}

func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := Status{
		State:         o.State(),
		Debounce:      o.debouncer.State(),
		LastOutcome:   o.lastOutcome,
		LastTrigger:   string(o.lastTrigger),
		LastFinished:  o.lastFinished,
		RealtimeAlive: o.realtimeUp,
	}
	if o.lastErr != nil {
		s.LastError = o.lastErr.Error()
	}
	return s
}

// Trigger schedules a debounced cycle. It reports false when the trigger was
// dropped because a debounced cycle is running.
func (o *Orchestrator) Trigger(trigger entities.SyncTrigger) bool {
	o.pending.Store(trigger)
	return o.debouncer.Trigger()
}

// RunCycle runs one cycle now. If a cycle is already running it returns
// OutcomeSkipped and ErrSyncInProgress without waiting.
func (o *Orchestrator) RunCycle(ctx context.Context, trigger entities.SyncTrigger) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return OutcomeSkipped, err
	}
	if !o.running.CompareAndSwap(false, true) {
		o.log.Debug("sync trigger dropped, cycle in progress", "trigger", trigger)
		return OutcomeSkipped, ErrSyncInProgress
	}
	defer func() {
		o.state.Store(StateIdle)
		o.running.Store(false)
	}()

	run := o.recordRun(ctx, trigger)
	outcome, version, results, err := o.cycle(ctx)
	o.completeRun(ctx, run, outcome, version, results, err)

	now := time.Now()
	o.mu.Lock()
	o.lastOutcome = outcome
	o.lastErr = err
	o.lastTrigger = trigger
	o.lastFinished = &now
	o.mu.Unlock()

	o.log.Info("sync cycle finished", "trigger", trigger, "outcome", outcome, "version", version)
	return outcome, err
}

func (o *Orchestrator) cycle(ctx context.Context) (Outcome, string, []dbsync.TableResult, error) {
	o.state.Store(StateCheckingConnectivity)
	if !o.deps.Probe.CheckInternetConnection(ctx) {
		return o.offline(ctx), "", nil, nil
	}

	o.state.Store(StateCheckingVersion)
	cached, err := o.deps.KV.GetVersion(ctx)
	if err != nil {
		o.log.Warn("failed to read cached version", "err", err)
		cached = ""
	}
	latest, err := o.deps.Remote.FetchVersion(ctx)
	if err != nil {
		o.log.Warn("version check failed", "err", err)
		return OutcomeVersionCheckFailed, "", nil, err
	}
	if latest == cached {
		o.log.Debug("dataset up to date", "version", latest)
		return OutcomeUpToDate, latest, nil, nil
	}

	o.state.Store(StateFullSync)
	o.log.Info("dataset version changed", "cached", cached, "remote", latest)
	results, err := o.fullSync(ctx, latest)
	if err != nil {
		if database.IsLockedError(err) {
			o.log.Warn("full sync hit a locked database", "err", err)
		} else {
			o.log.Error("full sync failed", "err", err)
			o.deps.Notifier.Notify(notices.KindSyncError, "")
		}
		o.setLastStatus(ctx, OutcomeSyncFailed, err.Error())
		return OutcomeSyncFailed, latest, results, err
	}

	o.deps.Notifier.Notify(notices.KindSyncSuccess, "")
	o.setLastStatus(ctx, OutcomeSynced, fmt.Sprintf("%d tables", len(results)))
	o.publish(notices.EventSyncFinished, map[string]any{"version": latest})
	return OutcomeSynced, latest, results, nil
}

func (o *Orchestrator) offline(ctx context.Context) Outcome {
	o.deps.Probe.SetupConnectivityListener(func() {
		o.Trigger(entities.SyncTriggerReconnect)
	})

	count, err := o.deps.Prayers.GetPrayerCount(ctx)
	if err != nil {
		o.log.Warn("failed to count local prayers", "err", err)
	}
	if count > 0 {
		o.deps.Notifier.Notify(notices.KindOfflineWithData, "")
		return OutcomeOfflineWithData
	}
	o.deps.Notifier.Notify(notices.KindOfflineNoData, "")
	return OutcomeOfflineNoData
}

type remoteSnapshot struct {
	categories   []entities.Category
	prayers      []entities.Prayer
	translations []entities.PrayerTranslation
	languages    []entities.Language
	paypal       string
}

// fetchAll reads every table before anything is written, so a network error
// leaves the mirror untouched.
func (o *Orchestrator) fetchAll(ctx context.Context) (*remoteSnapshot, error) {
	categories, err := o.deps.Remote.FetchCategories(ctx)
	if err != nil {
		return nil, err
	}
	prayers, err := o.deps.Remote.FetchPrayers(ctx)
	if err != nil {
		return nil, err
	}
	translations, err := o.deps.Remote.FetchTranslations(ctx)
	if err != nil {
		return nil, err
	}
	languages, err := o.deps.Remote.FetchLanguages(ctx)
	if err != nil {
		return nil, err
	}
	paypal, err := o.deps.Remote.FetchPayPalLink(ctx)
	if err != nil {
		return nil, err
	}
	return &remoteSnapshot{
		categories:   toCategories(categories),
		prayers:      toPrayers(prayers),
		translations: toTranslations(translations),
		languages:    toLanguages(languages),
		paypal:       paypal,
	}, nil
}

// fullSync applies the remote dataset parents first. The version marker is
// written only after every table succeeded, so a failure retries next cycle.
func (o *Orchestrator) fullSync(ctx context.Context, version string) ([]dbsync.TableResult, error) {
	if err := o.deps.Schema.CreateTables(); err != nil {
		return nil, err
	}

	snap, err := o.fetchAll(ctx)
	if err != nil {
		return nil, err
	}

	var results []dbsync.TableResult
	steps := []func() (dbsync.TableResult, error){
		func() (dbsync.TableResult, error) { return o.deps.Store.SyncCategories(ctx, snap.categories) },
		func() (dbsync.TableResult, error) { return o.deps.Store.SyncPrayers(ctx, snap.prayers) },
		func() (dbsync.TableResult, error) {
			return o.deps.Store.PruneCategories(ctx, categoryIDs(snap.categories))
		},
		func() (dbsync.TableResult, error) { return o.deps.Store.SyncTranslations(ctx, snap.translations) },
		func() (dbsync.TableResult, error) { return o.deps.Store.SyncLanguages(ctx, snap.languages) },
		func() (dbsync.TableResult, error) { return o.deps.Store.SyncPayPal(ctx, snap.paypal) },
	}
	for _, step := range steps {
		result, err := step()
		if err != nil {
			return results, err
		}
		o.log.Debug("table synced", "table", result.Table, "upserted", result.Upserted, "pruned", result.Pruned)
		results = append(results, result)
	}

	if err := o.deps.KV.SetVersion(ctx, version); err != nil {
		return results, fmt.Errorf("store version: %w", err)
	}
	if err := o.deps.KV.SetPayPalLink(ctx, snap.paypal); err != nil {
		o.log.Warn("failed to cache paypal link", "err", err)
	}
	if err := o.deps.KV.SetLastSyncAt(ctx, time.Now()); err != nil {
		o.log.Warn("failed to store last sync time", "err", err)
	}
	return results, nil
}

// RefreshPayPal re-fetches only the donation link and caches it.
func (o *Orchestrator) RefreshPayPal(ctx context.Context) (string, error) {
	link, err := o.deps.Remote.FetchPayPalLink(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch paypal link: %w", err)
	}
	if _, err := o.deps.Store.SyncPayPal(ctx, link); err != nil {
		return "", err
	}
	if err := o.deps.KV.SetPayPalLink(ctx, link); err != nil {
		return "", err
	}
	o.publish(notices.EventPayPalChanged, map[string]any{"link": link})
	return link, nil
}

// HandleChange reacts to a realtime event. A version change schedules a
// debounced cycle; a paypal change refreshes only the link. Either way the
// user gets a notice.
func (o *Orchestrator) HandleChange(event remote.ChangeEvent) {
	switch event.Table {
	case remote.TableVersion:
		o.log.Info("remote version changed", "event", event.EventType)
		o.publish(notices.EventVersionChanged, map[string]any{"event": event.EventType})
		o.deps.Notifier.Notify(notices.KindContentUpdated, "")
		o.Trigger(entities.SyncTriggerRealtime)
	case remote.TablePayPal:
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			_, err := o.RefreshPayPal(o.ctx)
			switch {
			case err == nil:
				o.deps.Notifier.Notify(notices.KindPayPalUpdated, "")
			case errors.Is(err, context.Canceled) || database.IsLockedError(err):
				o.log.Warn("paypal refresh skipped", "err", err)
			default:
				o.log.Error("paypal refresh failed", "err", err)
				o.deps.Notifier.Notify(notices.KindSyncError, "")
			}
		}()
	default:
		o.log.Debug("ignoring change event", "table", event.Table)
	}
}

// Start runs the startup cycle in the background and, when enabled, listens
// for realtime changes. The orchestrator stops when ctx is done or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			o.cancel()
		case <-o.ctx.Done():
		}
	}()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if _, err := o.RunCycle(o.ctx, entities.SyncTriggerStartup); err != nil && !errors.Is(err, ErrSyncInProgress) {
			o.log.Warn("startup sync cycle failed", "err", err)
		}
	}()

	if o.opts.RealtimeEnabled && o.deps.Realtime != nil {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			o.setRealtime(true)
			defer o.setRealtime(false)
			err := o.deps.Realtime.Subscribe(o.ctx, []string{remote.TableVersion, remote.TablePayPal}, o.HandleChange)
			if err != nil {
				o.log.Warn("realtime subscription ended", "err", err)
			}
		}()
	}
}

// Stop cancels pending work and waits for background goroutines.
func (o *Orchestrator) Stop() {
	o.debouncer.Cancel()
	o.cancel()
	o.wg.Wait()
}

func (o *Orchestrator) setRealtime(up bool) {
	o.mu.Lock()
	o.realtimeUp = up
	o.mu.Unlock()
}

func (o *Orchestrator) publish(eventType notices.EventType, data map[string]any) {
	if o.deps.Events == nil {
		return
	}
	o.deps.Events.Publish(notices.NewEvent(eventType, data))
}

func (o *Orchestrator) setLastStatus(ctx context.Context, outcome Outcome, message string) {
	if err := o.deps.KV.SetLastSyncStatus(ctx, string(outcome), message); err != nil {
		o.log.Warn("failed to store sync status", "err", err)
	}
}

func (o *Orchestrator) recordRun(ctx context.Context, trigger entities.SyncTrigger) *entities.SyncRun {
	if o.deps.Runs == nil {
		return nil
	}
	run, err := o.deps.Runs.RecordRun(ctx, trigger)
	if err != nil {
		o.log.Warn("failed to record sync run", "err", err)
		return nil
	}
	return run
}

func (o *Orchestrator) completeRun(ctx context.Context, run *entities.SyncRun, outcome Outcome, version string, results []dbsync.TableResult, runErr error) {
	if run == nil {
		return
	}
	if err := o.deps.Runs.CompleteRun(ctx, run, outcome.runStatus(), version, results, runErr); err != nil {
		o.log.Warn("failed to complete sync run", "err", err)
	}
}
