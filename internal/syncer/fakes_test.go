package syncer

import (
	"context"
	"sync"
	"time"

	dbsync "github.com/mrlokans/prayerbook/internal/database/sync"
	"github.com/mrlokans/prayerbook/internal/entities"
	"github.com/mrlokans/prayerbook/internal/remote"
)

// callLog records calls across fakes so tests can assert ordering.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func (l *callLog) count(call string) int {
	n := 0
	for _, c := range l.all() {
		if c == call {
			n++
		}
	}
	return n
}

type fakeProbe struct {
	mu         sync.Mutex
	online     bool
	listeners  int
	onRestored func()
}

func (p *fakeProbe) CheckInternetConnection(context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online
}

func (p *fakeProbe) SetupConnectivityListener(onRestored func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners++
	p.onRestored = onRestored
}

func (p *fakeProbe) restore() {
	p.mu.Lock()
	p.online = true
	fn := p.onRestored
	p.mu.Unlock()
	fn()
}

type fakeCounter struct {
	count int64
}

func (c *fakeCounter) GetPrayerCount(context.Context) (int64, error) {
	return c.count, nil
}

type fakeSchema struct {
	log *callLog
}

func (s *fakeSchema) CreateTables() error {
	s.log.add("create_tables")
	return nil
}

type spyStore struct {
	log    *callLog
	failOn string
	err    error
}

func (s *spyStore) step(name string, n int) (dbsync.TableResult, error) {
	s.log.add(name)
	if name == s.failOn {
		return dbsync.TableResult{Table: name}, s.err
	}
	return dbsync.TableResult{Table: name, Upserted: n}, nil
}

func (s *spyStore) SyncCategories(_ context.Context, rows []entities.Category) (dbsync.TableResult, error) {
	return s.step("sync_categories", len(rows))
}

func (s *spyStore) SyncPrayers(_ context.Context, rows []entities.Prayer) (dbsync.TableResult, error) {
	return s.step("sync_prayers", len(rows))
}

func (s *spyStore) SyncTranslations(_ context.Context, rows []entities.PrayerTranslation) (dbsync.TableResult, error) {
	return s.step("sync_translations", len(rows))
}

func (s *spyStore) SyncLanguages(_ context.Context, rows []entities.Language) (dbsync.TableResult, error) {
	return s.step("sync_languages", len(rows))
}

func (s *spyStore) SyncPayPal(_ context.Context, _ string) (dbsync.TableResult, error) {
	return s.step("sync_paypal", 1)
}

func (s *spyStore) PruneCategories(_ context.Context, _ []int64) (dbsync.TableResult, error) {
	return s.step("prune_categories", 0)
}

type fakeRemote struct {
	log        *callLog
	version    string
	versionErr error
	fetchErr   error
	paypal     string
	paypalErr  error
	// block, when set, holds FetchVersion until closed.
	block chan struct{}
}

func (r *fakeRemote) FetchCategories(context.Context) ([]remote.CategoryRow, error) {
	r.log.add("fetch_categories")
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	return []remote.CategoryRow{{ID: 1, Title: "Tag"}}, nil
}

func (r *fakeRemote) FetchPrayers(context.Context) ([]remote.PrayerRow, error) {
	r.log.add("fetch_prayers")
	return []remote.PrayerRow{{ID: 10, Name: "Fajr", CategoryID: 1}}, nil
}

func (r *fakeRemote) FetchTranslations(context.Context) ([]remote.TranslationRow, error) {
	r.log.add("fetch_translations")
	return nil, nil
}

func (r *fakeRemote) FetchLanguages(context.Context) ([]remote.LanguageRow, error) {
	r.log.add("fetch_languages")
	return []remote.LanguageRow{{ID: 1, LanguageCode: "DE"}}, nil
}

func (r *fakeRemote) FetchVersion(context.Context) (string, error) {
	r.log.add("fetch_version")
	if r.block != nil {
		<-r.block
	}
	return r.version, r.versionErr
}

func (r *fakeRemote) FetchPayPalLink(context.Context) (string, error) {
	r.log.add("fetch_paypal")
	if r.paypalErr != nil {
		return "", r.paypalErr
	}
	return r.paypal, nil
}

type fakeKV struct {
	log     *callLog
	mu      sync.Mutex
	version string
	paypal  string
	status  string
	syncAt  time.Time
}

func (k *fakeKV) GetVersion(context.Context) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.version, nil
}

func (k *fakeKV) SetVersion(_ context.Context, version string) error {
	k.log.add("set_version")
	k.mu.Lock()
	defer k.mu.Unlock()
	k.version = version
	return nil
}

func (k *fakeKV) SetPayPalLink(_ context.Context, link string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.paypal = link
	return nil
}

func (k *fakeKV) SetLastSyncAt(_ context.Context, at time.Time) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.syncAt = at
	return nil
}

func (k *fakeKV) SetLastSyncStatus(_ context.Context, status, _ string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.status = status
	return nil
}

func (k *fakeKV) getVersion() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.version
}

func (k *fakeKV) getPayPal() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.paypal
}

type fakeRuns struct {
	mu       sync.Mutex
	recorded []entities.SyncTrigger
	statuses []entities.SyncStatus
}

func (r *fakeRuns) RecordRun(_ context.Context, trigger entities.SyncTrigger) (*entities.SyncRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recorded = append(r.recorded, trigger)
	return &entities.SyncRun{Trigger: trigger}, nil
}

func (r *fakeRuns) CompleteRun(_ context.Context, _ *entities.SyncRun, status entities.SyncStatus, _ string, _ []dbsync.TableResult, _ error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
	return nil
}
