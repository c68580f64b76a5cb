package service

import (
	"time"

	"github.com/google/uuid"

	"hotel-pms/internal/model"
)

func appendActivity(log *[]model.ActivityEntry, actor model.Actor, action string, entityID string, details string, now time.Time) {
	*log = append(*log, model.ActivityEntry{
		ID:        uuid.NewString(),
		Action:    action,
		User:      actor.Name(),
		Timestamp: now,
		EntityID:  entityID,
		Details:   details,
	})
}

// newestFirst copies an append-only activity log in reverse order.
func newestFirst(log []model.ActivityEntry, limit int) []model.ActivityEntry {
	if limit <= 0 || limit > len(log) {
		limit = len(log)
	}

	out := make([]model.ActivityEntry, 0, limit)
	for i := len(log) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, log[i])
	}
	return out
}

func utcNow() time.Time {
	return time.Now().UTC()
}
