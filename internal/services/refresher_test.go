package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fastygo/taskboard/usecase/board"
)

type stubTarget struct {
	calls atomic.Int32
	err   error
}

func (s *stubTarget) Refresh(context.Context) error {
	s.calls.Add(1)
	return s.err
}

func TestRefreshNow(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"success", nil, false},
		{"superseded refresh is ignored", board.ErrStaleRefresh, false},
		{"failure is reported", errors.New("offline"), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			target := &stubTarget{err: tc.err}
			r := NewRefresher(target, nil, RefresherConfig{Interval: time.Minute})
			err := r.RefreshNow(ctx)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v", err)
			}
			if target.calls.Load() != 1 {
				t.Fatalf("calls = %d", target.calls.Load())
			}
		})
	}

	var nilRefresher *Refresher
	if err := nilRefresher.RefreshNow(ctx); err != nil {
		t.Fatalf("nil refresher: %v", err)
	}
}

func TestRefresherSchedule(t *testing.T) {
	target := &stubTarget{}
	r := NewRefresher(target, nil, RefresherConfig{Interval: time.Second})
	r.Start()
	defer r.Stop(context.Background())

	deadline := time.Now().Add(3 * time.Second)
	for target.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("scheduled refresh never ran")
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestShortIntervalFallsBack(t *testing.T) {
	r := NewRefresher(&stubTarget{}, nil, RefresherConfig{Interval: 10 * time.Millisecond})
	if r.cfg.Interval != 30*time.Second {
		t.Fatalf("interval = %s", r.cfg.Interval)
	}
}
