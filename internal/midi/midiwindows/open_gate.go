package midiwindows

// openGate decides when a winmm port reports itself opened. winmm sends
// MIM_OPEN / MOM_OPEN from inside midiInOpen, before midiInStart has run, so
// the device-opened callback waits for both the notification and a
// successful open flow, and fires once.
type openGate struct {
	notified bool
	ready    bool
	fired    bool
}

// notify records the winmm open notification. repeated is true for every
// notification after the first.
func (g *openGate) notify() (repeated, fire bool) {
	if g.notified {
		return true, false
	}
	g.notified = true
	return false, g.fire()
}

// finish records that the open flow succeeded.
func (g *openGate) finish() (fire bool) {
	g.ready = true
	return g.fire()
}

func (g *openGate) fire() bool {
	if g.fired || !g.notified || !g.ready {
		return false
	}
	g.fired = true
	return true
}
