package schedule

import (
	"errors"
	"time"
)

// ErrStopped reports a run cut short by its stop channel.
var ErrStopped = errors.New("schedule: stopped before the program ended")

// Sink receives level changes. The serial link's override and the
// simulation rig both adapt to it.
type Sink interface {
	SetLevel(percent uint8) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(percent uint8) error

func (f SinkFunc) SetLevel(percent uint8) error { return f(percent) }

// Runner drives a Sink through a program in wall-clock time.
type Runner struct {
	prog     *Program
	sink     Sink
	interval time.Duration
}

// NewRunner creates a runner. The interval sets how often the level is
// re-evaluated; zero means 100ms, plenty for mains half-cycles.
func NewRunner(prog *Program, sink Sink, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Runner{prog: prog, sink: sink, interval: interval}
}

// Run evaluates the program against the wall clock, pushing each level
// change to the sink. It returns nil when the program completes, with
// the final target already delivered, or ErrStopped if stop closes
// first. Sink errors end the run.
func (r *Runner) Run(stop <-chan struct{}) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	start := time.Now()
	last := -1 // forces the first push

	for {
		level, running := r.prog.Level(time.Since(start))
		if int(level) != last {
			if err := r.sink.SetLevel(level); err != nil {
				return err
			}
			last = int(level)
		}
		if !running {
			return nil
		}

		select {
		case <-ticker.C:
		case <-stop:
			return ErrStopped
		}
	}
}
