// Package sched provides the wall-clock Scheduler adapter.
package sched

import (
	"time"

	"marinecore/internal/ports"
)

// System schedules on real timers.
type System struct{}

func (System) Now() time.Time { return time.Now() }

func (System) After(d time.Duration, fn func()) ports.Timer {
	return systemTimer{t: time.AfterFunc(d, fn)}
}

type systemTimer struct {
	t *time.Timer
}

func (s systemTimer) Stop() bool { return s.t.Stop() }

var _ ports.Scheduler = System{}
