// Package logcat decodes the telemetry stream coming back from the LED ring
// and hands each report to one or more sinks.
package logcat

import (
	"context"
	"fmt"
	"io"

	"github.com/golang/glog"

	"ledring/protocol"
)

// Report is one decoded telemetry frame. CPU is only meaningful when
// HasCPU is set, which it is from the second frame on.
type Report struct {
	protocol.State
	CPU    float64
	HasCPU bool
}

// Sink consumes reports.
type Sink interface {
	Report(r Report) error
}

// Printer writes reports as text lines:
//
//	CPU: 1.23% - CS: 4, F: 1
type Printer struct {
	W io.Writer
}

// Report implements Sink.
func (p *Printer) Report(r Report) error {
	if r.HasCPU {
		if _, err := fmt.Fprintf(p.W, "CPU: %.2f%% - ", r.CPU); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(p.W, "CS: %d, F: %d\n", r.ContextSwitches, r.Frames)
	return err
}

// Run decodes frames from r until end of input or ctx is done and passes
// each one to every sink. A sink error stops the run. A read still blocked
// on r when ctx is done is abandoned, so an idle port does not hold Run.
func Run(ctx context.Context, r io.Reader, sinks ...Sink) error {
	scanner := protocol.NewScanner(&contextReader{ctx: ctx, r: r, res: make(chan readResult, 1)})
	scanner.Decoder().OnDiscard = func(b byte, badTail bool) {
		if !glog.V(2) {
			return
		}
		if badTail {
			glog.Infof("H? %#02x - bad tail, resync", b)
		} else {
			glog.Infof("H? %#02x - NOPE", b)
		}
	}

	var load protocol.Load
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		rep := Report{State: scanner.State()}
		rep.CPU, rep.HasCPU = load.Update(rep.State)
		if glog.V(1) {
			glog.Infof("frame %+v", rep.State)
		}
		for _, s := range sinks {
			if err := s.Report(rep); err != nil {
				return fmt.Errorf("sink: %w", err)
			}
		}
	}

	stats := scanner.Decoder().Stats()
	glog.V(1).Infof("decoded %d frames, %d resyncs, %d bytes discarded",
		stats.Frames, stats.Resyncs, stats.Discarded)
	return scanner.Err()
}

type readResult struct {
	n   int
	err error
}

// contextReader runs each Read of r in a goroutine and returns ctx.Err()
// instead if ctx ends first. The abandoned read finishes into buf and is
// never delivered.
type contextReader struct {
	ctx     context.Context
	r       io.Reader
	res     chan readResult
	buf     []byte
	pending bool
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	if !c.pending {
		if len(c.buf) < len(p) {
			c.buf = make([]byte, len(p))
		}
		buf := c.buf[:len(p)]
		c.pending = true
		go func() {
			n, err := c.r.Read(buf)
			c.res <- readResult{n: n, err: err}
		}()
	}
	select {
	case <-c.ctx.Done():
		return 0, c.ctx.Err()
	case res := <-c.res:
		c.pending = false
		return copy(p, c.buf[:res.n]), res.err
	}
}
