package tasks

import "time"

const (
	// DefaultImportTimeout bounds one import run.
	DefaultImportTimeout = 2 * time.Hour

	// sweepWorkers keeps a worker free for stale job sweeps while every
	// import slot is busy.
	sweepWorkers = 1
)

// Config sizes the import task queue. Each running import holds a decoded
// archive in memory, so the queue is tuned for a few long tasks rather than
// many short ones.
type Config struct {
	// ConcurrentImports is how many archives are processed at once. Default: 1
	ConcurrentImports int

	// ImportTimeout bounds a single import run. Default: 2h
	ImportTimeout time.Duration

	// ReleaseGrace is added to ImportTimeout before a claimed import is
	// handed to another worker. Default: 10m
	ReleaseGrace time.Duration

	// CleanupInterval is how often finished tasks are purged. Default: 1h
	CleanupInterval time.Duration
}

// DefaultConfig returns the queue sizing for a single-node importer.
func DefaultConfig() Config {
	return Config{
		ConcurrentImports: 1,
		ImportTimeout:     DefaultImportTimeout,
		ReleaseGrace:      10 * time.Minute,
		CleanupInterval:   time.Hour,
	}
}

// Workers is the backlite worker count: the import slots plus the sweep slot.
func (c Config) Workers() int {
	imports := c.ConcurrentImports
	if imports < 1 {
		imports = 1
	}
	return imports + sweepWorkers
}

// ReleaseAfter is how long a claimed task may run before backlite assumes
// its worker died. It always outlasts the longest import so a slow run is
// never picked up twice.
func (c Config) ReleaseAfter() time.Duration {
	timeout := c.ImportTimeout
	if timeout <= 0 {
		timeout = DefaultImportTimeout
	}
	grace := c.ReleaseGrace
	if grace <= 0 {
		grace = time.Minute
	}
	return timeout + grace
}
