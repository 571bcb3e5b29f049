package core

import "sync/atomic"

// Latch is a one-shot guard. The zero value is open.
type Latch struct {
	armed atomic.Bool
}

// TryArm returns true for exactly one caller until Reset.
func (l *Latch) TryArm() bool { return l.armed.CompareAndSwap(false, true) }

func (l *Latch) Armed() bool { return l.armed.Load() }

func (l *Latch) Reset() { l.armed.Store(false) }
