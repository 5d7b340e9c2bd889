// internal/game/clock.go
//
// Session clock: whole seconds from the first flip until the board is cleared.
//
// Notes:
//   - NotStarted -> Running -> Stopped; Stopped is terminal until a new game.
//   - Ticks are driven by the host (Tick timers); a stopped clock ignores them.

package game

import "fmt"

// ClockState is the session clock's lifecycle position.
type ClockState int

const (
	ClockNotStarted ClockState = iota
	ClockRunning
	ClockStopped
)

func (s ClockState) String() string {
	switch s {
	case ClockNotStarted:
		return "not_started"
	case ClockRunning:
		return "running"
	case ClockStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Clock counts whole elapsed seconds between the first flip and completion.
// Stopped is terminal; a new game uses a fresh Clock.
type Clock struct {
	state   ClockState
	elapsed int
}

// Start moves NotStarted to Running. It reports whether a transition happened.
func (c *Clock) Start() bool {
	if c.state != ClockNotStarted {
		return false
	}
	c.state = ClockRunning
	return true
}

// Tick adds one second while Running and reports whether it did.
func (c *Clock) Tick() bool {
	if c.state != ClockRunning {
		return false
	}
	c.elapsed++
	return true
}

// Stop moves Running to Stopped. It reports whether a transition happened.
func (c *Clock) Stop() bool {
	if c.state != ClockRunning {
		return false
	}
	c.state = ClockStopped
	return true
}

// State is the clock's lifecycle position.
func (c *Clock) State() ClockState { return c.state }

// Elapsed is the number of whole seconds counted so far.
func (c *Clock) Elapsed() int { return c.elapsed }

// FormatElapsed renders seconds as zero-padded MM:SS. Minutes are unbounded,
// so 7627 seconds is "127:07".
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
