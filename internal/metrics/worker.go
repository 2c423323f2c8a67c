package metrics

import "time"

// TaskCompleted records a successful maintenance task run.
func TaskCompleted(task string, removed int64, duration time.Duration) {
	MaintenanceRuns.WithLabelValues(task, "completed").Inc()
	MaintenanceDuration.WithLabelValues(task).Observe(duration.Seconds())
	if removed > 0 {
		MaintenanceRemoved.WithLabelValues(task).Add(float64(removed))
	}
}

// TaskFailed records a failed run. A permanent failure also takes the
// task off the schedule.
func TaskFailed(task string, permanent bool) {
	MaintenanceRuns.WithLabelValues(task, "failed").Inc()
	if permanent {
		MaintenanceRuns.WithLabelValues(task, "disabled").Inc()
	}
}
