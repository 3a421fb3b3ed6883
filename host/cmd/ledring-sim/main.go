// Command ledring-sim runs the LED ring firmware on a simulated board. It
// reads pixel frames on stdin and writes telemetry frames on stdout, so it
// can stand in for the device:
//
//	ledring-seq random -f 30 | ledring-sim | ledring-logcat
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/golang/glog"

	"ledring/core"
	"ledring/sim"
)

var (
	clockHz = flag.Uint("clock", 72000000, "Simulated core clock in Hz")
	step    = flag.Duration("step", 10*time.Millisecond, "Virtual time advanced per wall-clock step")
	trace   = flag.Bool("trace", false, "Log firmware trace events")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	core.SetDebugWriter(func(msg string) { glog.Info(msg) })
	core.SetDebugEnabled(*trace)

	cfg := sim.DefaultConfig()
	cfg.ClockHz = uint32(*clockHz)
	board, err := sim.New(cfg)
	if err != nil {
		glog.Exitf("board: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	frames := make(chan []byte, 16)
	go readInput(os.Stdin, frames)
	var input <-chan []byte = frames

	ticker := time.NewTicker(*step)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

	drain:
		for {
			select {
			case p, ok := <-input:
				if !ok {
					// keep running so telemetry still flows
					input = nil
					break drain
				}
				board.Feed(p)
			default:
				break drain
			}
		}

		if err := board.Run(ctx, *step); err != nil {
			if ctx.Err() != nil {
				return
			}
			glog.Errorf("firmware stopped: %v", err)
			glog.Flush()
			os.Exit(1)
		}
		if _, err := os.Stdout.Write(board.DrainSerial()); err != nil {
			glog.Exitf("write: %v", err)
		}
		for _, r := range board.Refreshes() {
			if glog.V(2) {
				glog.Infof("refresh at %dus: %x", core.CyclesToUS(r.End, cfg.ClockHz), r.Frame[:])
			}
		}
		if *trace {
			board.Firmware().Runtime().Trace().Dump()
			board.Firmware().Runtime().Trace().Clear()
		}
	}
}

func readInput(r io.Reader, out chan<- []byte) {
	defer close(out)
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			out <- append([]byte(nil), buf[:n]...)
		}
		if err != nil {
			if err != io.EOF {
				glog.Errorf("read: %v", err)
			}
			return
		}
	}
}
