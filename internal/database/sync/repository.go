// Package sync provides the write side of the mirror: per-table upserts of
// remote rows and the history of sync runs.
//
// Every Sync* call runs in its own exclusive transaction with one prepared
// statement executed per row, as INSERT ... ON CONFLICT(id) DO UPDATE. Rows are
// updated in place, so local rows referencing them (favourites, user category
// assignments) survive a sync. A translation arriving under a new id for a
// prayer and language that already exist locally replaces the old row. A
// failing table rolls back alone; tables synced before it stay committed.
//
// # Interface Implementation
//
//	var _ syncer.Store = (*Repository)(nil)
//
// # Usage
//
//	repo := sync.NewRepository(db, true)
//	result, err := repo.SyncPrayers(ctx, prayers)
package sync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/prayerbook/internal/entities"
)

// Table names in sync order.
const (
	TableCategories   = "categories"
	TablePrayers      = "prayers"
	TableTranslations = "prayer_translations"
	TableLanguages    = "languages"
	TablePayPal       = "paypal"
)

// pruneChunk keeps DELETE ... IN (?) well below SQLite's variable limit.
const pruneChunk = 500

// staleRunAfter is how long a run may stay "running" before it is considered interrupted.
const staleRunAfter = 10 * time.Minute

// TableResult reports what one table sync did.
type TableResult struct {
	Table    string `json:"table"`
	Upserted int    `json:"upserted"`
	Pruned   int    `json:"pruned"`
	Replaced int    `json:"replaced,omitempty"`
}

type upsertOptions[T any] struct {
	prune            bool
	deferForeignKeys bool
	// beforeRow runs ahead of each row's upsert and returns how many rows it replaced.
	beforeRow func(tx *gorm.DB, row *T) (int64, error)
}

// Repository handles all sync database operations.
type Repository struct {
	db           *gorm.DB
	pruneMissing bool
}

// NewRepository creates a new sync repository. With pruneMissing set, rows
// absent from a non-empty remote batch are deleted locally.
func NewRepository(db *gorm.DB, pruneMissing bool) *Repository {
	return &Repository{db: db, pruneMissing: pruneMissing}
}

// SyncCategories upserts categories, parents before children. Stale categories
// are not pruned here because deleting one cascades to its prayers before the
// prayer batch has moved them; call PruneCategories after SyncPrayers.
func (r *Repository) SyncCategories(ctx context.Context, rows []entities.Category) (TableResult, error) {
	ordered := orderParentsFirst(rows)
	return upsertTable(ctx, r.db, TableCategories, ordered, func(c *entities.Category) int64 { return c.ID },
		upsertOptions[entities.Category]{deferForeignKeys: true})
}

// PruneCategories deletes categories whose ids are not in keep.
// An empty keep set never prunes.
func (r *Repository) PruneCategories(ctx context.Context, keep []int64) (TableResult, error) {
	result := TableResult{Table: TableCategories}
	if !r.pruneMissing || len(keep) == 0 {
		return result, nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := pruneMissing(tx, TableCategories, keep)
		result.Pruned = n
		return err
	})
	if err != nil {
		return TableResult{Table: TableCategories}, fmt.Errorf("prune %s: %w", TableCategories, err)
	}
	return result, nil
}

func (r *Repository) SyncPrayers(ctx context.Context, rows []entities.Prayer) (TableResult, error) {
	return upsertTable(ctx, r.db, TablePrayers, rows, func(p *entities.Prayer) int64 { return p.ID },
		upsertOptions[entities.Prayer]{prune: r.pruneMissing})
}

// SyncTranslations upserts translations. A local translation holding the same
// prayer and language under another id is deleted first, so the last row of a
// batch wins for each pair.
func (r *Repository) SyncTranslations(ctx context.Context, rows []entities.PrayerTranslation) (TableResult, error) {
	return upsertTable(ctx, r.db, TableTranslations, rows, func(t *entities.PrayerTranslation) int64 { return t.ID },
		upsertOptions[entities.PrayerTranslation]{prune: r.pruneMissing, beforeRow: replaceTranslationSlot})
}

func replaceTranslationSlot(tx *gorm.DB, row *entities.PrayerTranslation) (int64, error) {
	res := tx.Where("prayer_id = ? AND language_code = ? AND id <> ?", row.PrayerID, row.LanguageCode, row.ID).
		Delete(&entities.PrayerTranslation{})
	return res.RowsAffected, res.Error
}

func (r *Repository) SyncLanguages(ctx context.Context, rows []entities.Language) (TableResult, error) {
	return upsertTable(ctx, r.db, TableLanguages, rows, func(l *entities.Language) int64 { return l.ID },
		upsertOptions[entities.Language]{prune: r.pruneMissing})
}

// SyncPayPal stores the single donation link row.
func (r *Repository) SyncPayPal(ctx context.Context, link string) (TableResult, error) {
	row := []entities.PayPalLink{{ID: entities.PayPalLinkID, Link: link, UpdatedAt: time.Now()}}
	return upsertTable(ctx, r.db, TablePayPal, row, func(p *entities.PayPalLink) int64 { return p.ID },
		upsertOptions[entities.PayPalLink]{})
}

// GetPayPalLink returns the stored donation link, or "" when none was synced yet.
func (r *Repository) GetPayPalLink(ctx context.Context) (string, error) {
	var row entities.PayPalLink
	err := r.db.WithContext(ctx).First(&row, entities.PayPalLinkID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return row.Link, nil
}

func upsertTable[T any](ctx context.Context, db *gorm.DB, table string, rows []T, idOf func(*T) int64, opts upsertOptions[T]) (TableResult, error) {
	result := TableResult{Table: table}

	prepared := db.WithContext(ctx).Session(&gorm.Session{PrepareStmt: true})
	err := prepared.Transaction(func(tx *gorm.DB) error {
		if opts.deferForeignKeys {
			// Self references are checked at commit, so batch order cannot trip them.
			if err := tx.Exec("PRAGMA defer_foreign_keys = ON").Error; err != nil {
				return err
			}
		}

		ids := make([]int64, 0, len(rows))
		for i := range rows {
			if opts.beforeRow != nil {
				n, err := opts.beforeRow(tx, &rows[i])
				if err != nil {
					return fmt.Errorf("row %d: %w", idOf(&rows[i]), err)
				}
				result.Replaced += int(n)
			}
			err := tx.Omit(clause.Associations).
				Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "id"}},
					UpdateAll: true,
				}).
				Create(&rows[i]).Error
			if err != nil {
				return fmt.Errorf("row %d: %w", idOf(&rows[i]), err)
			}
			ids = append(ids, idOf(&rows[i]))
		}
		result.Upserted = len(rows)

		if opts.prune && len(ids) > 0 {
			n, err := pruneMissing(tx, table, ids)
			if err != nil {
				return err
			}
			result.Pruned = n
		}
		return nil
	})
	if err != nil {
		return TableResult{Table: table}, fmt.Errorf("sync %s: %w", table, err)
	}
	return result, nil
}

func pruneMissing(tx *gorm.DB, table string, keep []int64) (int, error) {
	var existing []int64
	if err := tx.Table(table).Pluck("id", &existing).Error; err != nil {
		return 0, err
	}

	keepSet := make(map[int64]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}
	var stale []int64
	for _, id := range existing {
		if _, ok := keepSet[id]; !ok {
			stale = append(stale, id)
		}
	}

	pruned := 0
	for start := 0; start < len(stale); start += pruneChunk {
		end := min(start+pruneChunk, len(stale))
		res := tx.Exec("DELETE FROM "+table+" WHERE id IN ?", stale[start:end])
		if res.Error != nil {
			return pruned, res.Error
		}
		pruned += int(res.RowsAffected)
	}
	return pruned, nil
}

// orderParentsFirst sorts categories so every parent present in the batch
// precedes its children. Members of a cycle keep their input order at the end.
func orderParentsFirst(rows []entities.Category) []entities.Category {
	byID := make(map[int64]int, len(rows))
	for i, c := range rows {
		byID[c.ID] = i
	}

	depth := make([]int, len(rows))
	for i := range rows {
		seen := map[int64]bool{rows[i].ID: true}
		d := 0
		cur := rows[i]
		for cur.ParentID != nil {
			j, ok := byID[*cur.ParentID]
			if !ok || seen[rows[j].ID] {
				break
			}
			seen[rows[j].ID] = true
			d++
			cur = rows[j]
		}
		depth[i] = d
	}

	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return depth[idx[a]] < depth[idx[b]] })

	out := make([]entities.Category, len(rows))
	for i, j := range idx {
		out[i] = rows[j]
	}
	return out
}

// RecordRun stores the start of a sync cycle.
func (r *Repository) RecordRun(ctx context.Context, trigger entities.SyncTrigger) (*entities.SyncRun, error) {
	run := &entities.SyncRun{
		Trigger:   trigger,
		Status:    entities.SyncStatusRunning,
		StartedAt: time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

// CompleteRun closes a run with its final status.
func (r *Repository) CompleteRun(ctx context.Context, run *entities.SyncRun, status entities.SyncStatus, version string, results []TableResult, runErr error) error {
	now := time.Now()
	rowsTotal := 0
	for _, res := range results {
		rowsTotal += res.Upserted
	}

	run.Status = status
	run.Version = version
	run.Tables = len(results)
	run.Rows = rowsTotal
	run.CompletedAt = &now
	if runErr != nil {
		run.Error = runErr.Error()
	}
	return r.db.WithContext(ctx).Save(run).Error
}

// LatestRuns returns the most recent runs, newest first.
func (r *Repository) LatestRuns(ctx context.Context, limit int) ([]entities.SyncRun, error) {
	var runs []entities.SyncRun
	query := r.db.WithContext(ctx).Order("started_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&runs).Error
	return runs, err
}

// FailStaleRuns marks runs left "running" by a crashed process as failed.
func (r *Repository) FailStaleRuns(ctx context.Context) (int64, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&entities.SyncRun{}).
		Where("status = ? AND started_at < ?", entities.SyncStatusRunning, now.Add(-staleRunAfter)).
		Updates(map[string]any{
			"status":       entities.SyncStatusFailed,
			"error":        "sync was interrupted",
			"completed_at": now,
		})
	return res.RowsAffected, res.Error
}
