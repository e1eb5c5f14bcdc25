package database

import (
	"database/sql"
	"strings"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DriverName is the sqlite3 driver registered with the fold() SQL function.
const DriverName = "sqlite3_prayerbook"

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("fold", fold, true)
		},
	})
}

// fold lowercases text with Unicode case mapping. SQLite's LOWER and LIKE
// only fold ASCII, so "Ü" and "ü" would not match. NULL stays NULL.
func fold(v any) any {
	switch s := v.(type) {
	case string:
		return strings.ToLower(s)
	case []byte:
		if s == nil {
			return nil
		}
		return strings.ToLower(string(s))
	default:
		return v
	}
}

// Open returns a gorm dialector for dbPath on the driver that provides fold().
func Open(dbPath string) gorm.Dialector {
	return sqlite.New(sqlite.Config{DriverName: DriverName, DSN: DSN(dbPath)})
}
