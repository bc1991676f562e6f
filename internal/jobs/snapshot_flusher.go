package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/angesh007/CollabCode/internal/session"
)

// SnapshotFlusherJob periodically writes dirty room documents to the store
// so a process restart loses at most one flush interval of edits.
type SnapshotFlusherJob struct {
	hub      *session.Hub
	store    session.SnapshotStore
	schedule string
	log      *zap.Logger
	cron     *cron.Cron
}

func NewSnapshotFlusherJob(hub *session.Hub, store session.SnapshotStore, schedule string, log *zap.Logger) *SnapshotFlusherJob {
	return &SnapshotFlusherJob{
		hub:      hub,
		store:    store,
		schedule: schedule,
		log:      log,
		cron:     cron.New(),
	}
}

// Start begins the scheduled flush job.
func (sfj *SnapshotFlusherJob) Start() error {
	_, err := sfj.cron.AddFunc(sfj.schedule, func() {
		sfj.RunFlush()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule snapshot flush job: %w", err)
	}

	sfj.cron.Start()
	sfj.log.Info("snapshot flusher started", zap.String("schedule", sfj.schedule))
	return nil
}

// Stop stops the scheduled flush job.
func (sfj *SnapshotFlusherJob) Stop() {
	if sfj.cron != nil {
		sfj.cron.Stop()
	}
}

// RunFlush performs a single flush pass over all live rooms.
func (sfj *SnapshotFlusherJob) RunFlush() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	flushed := 0
	for _, room := range sfj.hub.Rooms() {
		text, dirty := room.ConsumeDirty()
		if !dirty {
			continue
		}
		if err := sfj.store.SaveSnapshot(ctx, room.ID, text); err != nil {
			sfj.log.Warn("failed to flush room snapshot", zap.String("room_id", room.ID), zap.Error(err))
			continue
		}
		flushed++
	}
	if flushed > 0 {
		sfj.log.Info("flushed room snapshots", zap.Int("rooms", flushed))
	}
}
