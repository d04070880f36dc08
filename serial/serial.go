// Package serial stubs the link-cable port: it stores the last byte
// written to SB and tees it to an out-of-core sink. The multi-bit shift
// transfer and its timing are out of scope; this only models the
// observable byte and the Serial interrupt request latch.
package serial

import (
	"log/slog"
)

// Port owns the MMU-visible serial state: the last-written SB byte and the
// pending Serial interrupt latch.
type Port struct {
	sb      byte
	pending bool

	sink   func(byte)
	logger *slog.Logger
	line   []byte
}

// Option configures a Port at construction time.
type Option func(*Port)

// WithLineLogging buffers written bytes until a NUL, newline or
// carriage-return and logs one structured line at a time, handy for test
// ROMs that print diagnostics over the serial port. Bytes are not filtered
// for printability.
func WithLineLogging() Option {
	return func(p *Port) {
		p.logger = slog.Default()
	}
}

// New creates a Port whose SB writes are teed to sink (which may be nil).
func New(sink func(byte), opts ...Option) *Port {
	p := &Port{sink: sink}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// EnableLineLogging turns on line-buffered structured logging for an
// already-constructed Port.
func (p *Port) EnableLineLogging() {
	p.logger = slog.Default()
}

// Write stores the byte written to SB and immediately emits it to the
// configured sink.
func (p *Port) Write(value byte) {
	p.sb = value
	if p.sink != nil {
		p.sink(value)
	}
	if p.logger != nil {
		p.bufferForLog(value)
	}
}

func (p *Port) bufferForLog(b byte) {
	if b == 0 || b == '\n' || b == '\r' {
		if len(p.line) > 0 {
			p.logger.Info("serial", "line", string(p.line))
			p.line = p.line[:0]
		}
		return
	}
	p.line = append(p.line, b)
}

// LastByte returns the last byte written to SB.
func (p *Port) LastByte() byte {
	return p.sb
}

// PendingInterrupt reports the latched Serial interrupt request.
func (p *Port) PendingInterrupt() bool {
	return p.pending
}

// SetPendingInterrupt lets the MMU's IF write path set or clear the latch.
func (p *Port) SetPendingInterrupt(pending bool) {
	p.pending = pending
}
