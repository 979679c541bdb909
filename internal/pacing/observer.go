package pacing

import (
	"github.com/san-kum/pacesim/internal/analysis"
	"github.com/san-kum/pacesim/internal/dynamo"
)

// Loop names the driver loop that produced a PaceEvent.
type Loop string

const (
	LoopSteadyState Loop = "steady-state"
	LoopAnalysis    Loop = "analysis"
	LoopAPD         Loop = "apd"
	LoopRestitution Loop = "restitution"
)

// PaceEvent is emitted after every completed pace.
type PaceEvent struct {
	Model string
	Loop  Loop
	Pace  int
	Total int
	MRMS  float64 // NaN when the loop does not compare paces
	APD   float64 // NaN when the loop does not measure APD
	State dynamo.State

	// set on analysis paces where the classifier ran
	Summary *analysis.Summary
}

type Observer interface {
	OnPace(ev PaceEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev PaceEvent)

func (f ObserverFunc) OnPace(ev PaceEvent) { f(ev) }

// ChannelObserver forwards events to a channel without blocking the pacing
// loop. Events are dropped while the channel is full.
type ChannelObserver chan<- PaceEvent

func (c ChannelObserver) OnPace(ev PaceEvent) {
	select {
	case c <- ev:
	default:
	}
}
