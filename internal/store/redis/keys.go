package redis

// Key names are kept identical to the historical deployment so stored data
// remains interchangeable across versions.
const (
	// KeyLastActivity holds the RFC3339 timestamp of the most recent ping
	KeyLastActivity = "app_metrics:last_activity"
	// KeyLastPingDate holds the calendar date (YYYY-MM-DD) of the most recent ping
	KeyLastPingDate = "app_metrics:last_ping_date"
	// KeyServerStatus holds the server status string ("active")
	KeyServerStatus = "app_metrics:server_status"
	// KeyTotalPings is the lifetime ping counter
	KeyTotalPings = "total_pings"
	// KeyRecentActivities is the capped list of recent ping timestamps
	KeyRecentActivities = "recent_activities"
	// KeySystemInfo holds the latest process/runtime snapshot
	KeySystemInfo = "system_info"
	// KeyMaintenanceStats is the maintenance bookkeeping hash
	KeyMaintenanceStats = "maintenance_stats"
	// KeyMaintenanceLog is the capped list of maintenance run summaries
	KeyMaintenanceLog = "maintenance_log"

	// KeyPrefixDailyPings is the prefix for date-bucketed ping counters
	KeyPrefixDailyPings = "daily_pings:"
	// KeyPrefixDayStats is the prefix for weekday-bucketed ping counters
	KeyPrefixDayStats = "stats:day_"
	// KeyPrefixActivityLog is the prefix for one-off activity log entries
	KeyPrefixActivityLog = "activity_log:"
	// KeyPrefixBackup is the prefix for maintenance backup snapshots
	KeyPrefixBackup = "backup:"
)

// FieldLastMaintenance and FieldMaintenanceCount are the maintenance_stats hash fields.
const (
	FieldLastMaintenance  = "last_maintenance"
	FieldMaintenanceCount = "maintenance_count"
)

// DailyPingsKey returns the counter key for a calendar date ("2006-01-02").
func DailyPingsKey(date string) string {
	return KeyPrefixDailyPings + date
}

// DayStatsKey returns the counter key for a weekday index (0 = Sunday .. 6 = Saturday).
func DayStatsKey(weekday int) string {
	return KeyPrefixDayStats + string(rune('0'+weekday))
}

// ActivityLogKey returns the one-off log entry key for a timestamp.
func ActivityLogKey(timestamp string) string {
	return KeyPrefixActivityLog + timestamp
}

// BackupKey returns the backup snapshot key for a timestamp.
func BackupKey(timestamp string) string {
	return KeyPrefixBackup + timestamp
}
