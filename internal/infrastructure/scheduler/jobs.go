package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Job names
const (
	JobNameArchive   = "session-archive"
	JobNameOccupancy = "occupancy-gauge"
)

// SessionArchiver moves settled sessions to the archive
type SessionArchiver interface {
	ArchiveOlderThan(ctx context.Context, retention time.Duration) (int, error)
}

// ArchiveJob archives settled sessions older than the retention window
type ArchiveJob struct {
	archiver  SessionArchiver
	retention time.Duration
	logger    *zap.Logger
}

// NewArchiveJob creates the archival job
func NewArchiveJob(archiver SessionArchiver, retention time.Duration, logger *zap.Logger) *ArchiveJob {
	return &ArchiveJob{archiver: archiver, retention: retention, logger: logger}
}

// Name returns the job name
func (j *ArchiveJob) Name() string { return JobNameArchive }

// Run executes one archival pass
func (j *ArchiveJob) Run(ctx context.Context) error {
	count, err := j.archiver.ArchiveOlderThan(ctx, j.retention)
	if count > 0 || err != nil {
		j.logger.Info("Archive run finished",
			zap.Int("archived", count),
			zap.Duration("retention", j.retention),
			zap.Bool("partial", err != nil))
	}
	return err
}

// ActiveSessionCounter counts sessions currently running
type ActiveSessionCounter interface {
	CountActiveSessions(ctx context.Context) (int64, error)
}

// OccupancyRecorder receives the sampled active session count
type OccupancyRecorder interface {
	RecordActiveSessions(ctx context.Context, count int64)
}

// OccupancyJob samples the number of active sessions into the occupancy gauge
type OccupancyJob struct {
	counter  ActiveSessionCounter
	recorder OccupancyRecorder
}

// NewOccupancyJob creates the occupancy sampling job
func NewOccupancyJob(counter ActiveSessionCounter, recorder OccupancyRecorder) *OccupancyJob {
	return &OccupancyJob{counter: counter, recorder: recorder}
}

// Name returns the job name
func (j *OccupancyJob) Name() string { return JobNameOccupancy }

// Run samples the active session count once
func (j *OccupancyJob) Run(ctx context.Context) error {
	count, err := j.counter.CountActiveSessions(ctx)
	if err != nil {
		return err
	}
	j.recorder.RecordActiveSessions(ctx, count)
	return nil
}
