package service

import (
	"time"

	"github.com/rl1809/material-scanner/internal/port"
)

type systemClock struct{}

// SystemClock is the wall clock backed by the runtime timers.
func SystemClock() port.Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) port.Timer {
	return time.AfterFunc(d, f)
}
