package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the local mirror database
	DefaultDatabasePath = "./prayerbook.db"

	// DefaultLogDir is where rotated log files are written
	DefaultLogDir = "./logs"
)
