package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mrlokans/prayerbook/internal/entities"
	"github.com/mrlokans/prayerbook/internal/logger"
)

// Connection pragmas applied to every pooled connection. Write transactions
// begin EXCLUSIVE so a sync routine never interleaves with another writer.
const dsnPragmas = "_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000&_txlock=exclusive"

// mirrorTables are replaced by sync. localTables are only written by the user.
var (
	mirrorTables = []any{
		&entities.Category{},
		&entities.Prayer{},
		&entities.PrayerTranslation{},
		&entities.Language{},
		&entities.PayPalLink{},
	}
	localTables = []any{
		&entities.Favorite{},
		&entities.UserCategory{},
		&entities.UserCategoryPrayer{},
		&entities.SyncRun{},
	}
)

type Database struct {
	DB   *gorm.DB
	path string
}

// Option tweaks how the database is opened.
type Option func(*gorm.Config)

// WithLogLevel sets the gorm SQL log level (Warn by default).
func WithLogLevel(level gormlogger.LogLevel) Option {
	return func(c *gorm.Config) {
		c.Logger = gormlogger.Default.LogMode(level)
	}
}

// NewDatabase opens the local store and creates the schema.
func NewDatabase(dbPath string, opts ...Option) (*Database, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	cfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	db, err := gorm.Open(Open(dbPath), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	database := &Database{DB: db, path: dbPath}
	if err := database.CreateTables(); err != nil {
		_ = database.Close()
		return nil, err
	}

	logger.Info("database initialized", "path", dbPath)

	return database, nil
}

// DSN appends the connection pragmas to a database path.
func DSN(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + dsnPragmas
}

// CreateTables creates every table and index that does not exist yet.
// It is idempotent and runs on each start and before every full sync.
func (d *Database) CreateTables() error {
	tables := append(append([]any{}, mirrorTables...), localTables...)
	if err := d.DB.AutoMigrate(tables...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Path returns the file the database was opened from.
func (d *Database) Path() string {
	return d.path
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SiblingPath derives the path of a companion database file, e.g.
// "./prayerbook.db" with suffix "kv" becomes "./prayerbook-kv.db".
func SiblingPath(dbPath, suffix string) string {
	ext := filepath.Ext(dbPath)
	base := strings.TrimSuffix(dbPath, ext)
	if ext == "" {
		ext = ".db"
	}
	return base + "-" + suffix + ext
}
