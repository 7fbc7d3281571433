package postgres

import (
	"time"

	"github.com/fastygo/taskboard/domain"
)

func nullTime(ts *domain.Timestamp) interface{} {
	if ts == nil || ts.IsZero() {
		return nil
	}
	return ts.Time
}

func toTimestamp(t *time.Time) *domain.Timestamp {
	if t == nil {
		return nil
	}
	ts := domain.NewTimestamp(*t)
	return &ts
}

func nullInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
