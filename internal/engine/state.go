package engine

import "fmt"

// State is a render job phase.
type State int

const (
	Idle State = iota
	Preparing
	CapturingFrames
	Finalizing
	MuxingAudio
	Succeeded
	BackendFailed
	Failed
)

var stateNames = [...]string{
	Idle:            "idle",
	Preparing:       "preparing",
	CapturingFrames: "capturing",
	Finalizing:      "finalizing",
	MuxingAudio:     "muxing_audio",
	Succeeded:       "succeeded",
	BackendFailed:   "backend_failed",
	Failed:          "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool { return s == Succeeded || s == Failed }

var transitions = map[State][]State{
	Idle:            {Preparing},
	Preparing:       {CapturingFrames, BackendFailed, Failed},
	CapturingFrames: {Finalizing, BackendFailed, Failed},
	Finalizing:      {MuxingAudio, Succeeded, BackendFailed, Failed},
	MuxingAudio:     {Succeeded, Failed},
	BackendFailed:   {Preparing, Failed},
}

// machine walks the transition table. BackendFailed -> Preparing is the
// fallback edge and may be taken once per job.
type machine struct {
	state    State
	fellBack bool
	history  []State
}

func newMachine() *machine {
	return &machine{state: Idle, history: []State{Idle}}
}

func (m *machine) to(next State) error {
	if !m.allowed(next) {
		return fmt.Errorf("illegal transition %s -> %s", m.state, next)
	}
	if m.state == BackendFailed && next == Preparing {
		m.fellBack = true
	}
	m.state = next
	m.history = append(m.history, next)
	return nil
}

func (m *machine) allowed(next State) bool {
	if m.state == BackendFailed && next == Preparing && m.fellBack {
		return false
	}
	for _, s := range transitions[m.state] {
		if s == next {
			return true
		}
	}
	return false
}

// canFallBack reports whether the fallback edge is still available.
func (m *machine) canFallBack() bool { return !m.fellBack }

// fail moves to Failed from any non-terminal state.
func (m *machine) fail() {
	if !m.state.Terminal() {
		m.state = Failed
		m.history = append(m.history, Failed)
	}
}
