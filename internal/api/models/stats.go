package models

import (
	"time"

	"github.com/jroosing/dnstrace/internal/trace"
)

// StatsResponse contains tracer runtime statistics.
type StatsResponse struct {
	Uptime        string              `json:"uptime"`
	UptimeSeconds int64               `json:"uptime_seconds"`
	StartTime     time.Time           `json:"start_time"`
	Source        string              `json:"source,omitempty"`
	GoRoutines    int                 `json:"goroutines"`
	MemoryAllocMB float64             `json:"memory_alloc_mb"`
	NumCPU        int                 `json:"num_cpu"`
	Process       *ProcessStats       `json:"process,omitempty"`
	Host          *HostStats          `json:"host,omitempty"`
	Trace         trace.StatsSnapshot `json:"trace"`
	RecentEvents  int                 `json:"recent_events"`
	Journal       *JournalStats       `json:"journal,omitempty"`
}

// ProcessStats describes the tracer process as seen by the OS.
type ProcessStats struct {
	PID        int32   `json:"pid"`
	CPUPercent float64 `json:"cpu_percent"`
	RSSMB      float64 `json:"rss_mb"`
	NumThreads int32   `json:"num_threads"`
}

// HostStats describes the capture host.
type HostStats struct {
	Hostname      string `json:"hostname"`
	OS            string `json:"os"`
	Platform      string `json:"platform"`
	UptimeSeconds uint64 `json:"uptime_seconds"`
}

// JournalStats describes the event journal.
type JournalStats struct {
	Events int64 `json:"events"`
}
