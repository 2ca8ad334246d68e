package cmd

import (
	"time"

	"go.uber.org/atomic"
)

// ActivityProbe answers "how long has this segment gone without client
// traffic", the idleness signal RQ's admission gate consumes (distilled spec
// §4.3). This plays the role the distilled spec calls "service handle" — in
// MinIO terms, the kind of thing cmd/mrf.go's waitForLowHTTPReq() approximates
// with a blocking poll; here it's a pure query so RQ's Poll stays non-blocking.
type ActivityProbe interface {
	// IdleFor reports how long it has been since the last observed client
	// operation. A missing signal must be treated as "not idle" (distilled
	// spec §4.3), so implementations should return 0 rather than a sentinel
	// when they have no observation yet.
	IdleFor() time.Duration
}

// clockActivityProbe tracks the last-activity timestamp with an atomic int64
// of UnixNano, updated by Touch. Within this repository Touch is only called
// by NewClockActivityProbe, so the daemon's probe measures time since start.
// This is the concrete ActivityProbe wired into the daemon; tests use a
// fakeActivityProbe they control directly.
type clockActivityProbe struct {
	lastActivityUnixNano atomic.Int64
}

// NewClockActivityProbe returns an ActivityProbe that starts "not idle"
// (as if an operation just happened), the conservative default per §4.3.
func NewClockActivityProbe() *clockActivityProbe {
	p := &clockActivityProbe{}
	p.Touch()
	return p
}

// Touch records a client operation as having just happened.
func (p *clockActivityProbe) Touch() {
	p.lastActivityUnixNano.Store(time.Now().UnixNano())
}

func (p *clockActivityProbe) IdleFor() time.Duration {
	last := p.lastActivityUnixNano.Load()
	return time.Since(time.Unix(0, last))
}
