// Package clock provides an injectable time source so deadline math and
// status derivation stay deterministic under test.
package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock is the time source consumed by services and the scheduler.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// NewSystemClock returns a Clock backed by the wall clock in UTC.
func NewSystemClock() Clock { return systemClock{} }

var Module = fx.Module("clock",
	fx.Provide(NewSystemClock),
)
