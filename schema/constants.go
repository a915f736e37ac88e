package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for run history.
	DatabaseBackend string

	// TaskStatus represents the state of a GrimoireLab ingestion task.
	TaskStatus string

	// FileType represents the bucket a changed file is counted in.
	FileType string
)

// All output modes supported.
const (
	JSONOut  OutputMode = "json" // default
	YAMLOut  OutputMode = "yaml"
	CSVOut   OutputMode = "csv"
	TableOut OutputMode = "table"
)

// All history backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Ingestion task states reported by GrimoireLab.
const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// File type buckets.
const (
	CodeFile   FileType = "code"
	BinaryFile FileType = "binary"
	OtherFile  FileType = "other"
)

// CommitEventType is the event type of a git commit in the events index.
const CommitEventType = "org.grimoirelab.events.git.commit"

// Datasource values used when scheduling repositories.
const (
	GitDatasource  = "git"
	CommitCategory = "commit"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	JSONOut:  {},
	YAMLOut:  {},
	CSVOut:   {},
	TableOut: {},
}

// ValidDatabaseBackends lists all valid history backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
