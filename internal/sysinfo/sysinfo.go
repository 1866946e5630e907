package sysinfo

import (
	"runtime"
	"time"
)

// Snapshot is a point-in-time view of the process and runtime. It is cheap to
// regenerate, so it only lives in the store under a short TTL.
type Snapshot struct {
	Timestamp     string  `json:"timestamp"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Memory        Memory  `json:"memory"`
	Platform      string  `json:"platform"`
	Version       string  `json:"version"`
	Goroutines    int     `json:"goroutines"`
}

// Memory holds the Go heap figures that matter for a coarse health signal.
type Memory struct {
	AllocBytes      uint64 `json:"alloc_bytes"`
	TotalAllocBytes uint64 `json:"total_alloc_bytes"`
	SysBytes        uint64 `json:"sys_bytes"`
	NumGC           uint32 `json:"num_gc"`
}

var started = time.Now()

// Collect builds a snapshot stamped with the provided time.
func Collect(now time.Time) Snapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return Snapshot{
		Timestamp:     now.UTC().Format(time.RFC3339Nano),
		UptimeSeconds: now.Sub(started).Seconds(),
		Memory: Memory{
			AllocBytes:      ms.Alloc,
			TotalAllocBytes: ms.TotalAlloc,
			SysBytes:        ms.Sys,
			NumGC:           ms.NumGC,
		},
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
		Version:    runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
	}
}
