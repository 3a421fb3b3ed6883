// Command ledring-seq generates pixel frames for the LED ring.
//
//	ledring-seq [-device /dev/ttyUSB0] random -f 30
//	ledring-seq roulette AB10FF -f 10
//	ledring-seq single AB10FF
//	ledring-seq crescendo AB10FF -f 60 -n 600
//	ledring-seq -script show.txt
//
// Frames go to stdout unless -device names a serial port.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/golang/glog"

	"ledring/host/sequence"
	"ledring/host/serial"
)

var (
	device = flag.String("device", "", "Serial device path, stdout if empty")
	baud   = flag.Int("baud", serial.DefaultBaud, "Baud rate")
	script = flag.String("script", "", "Playlist file, one mode per line")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] MODE [COLOR] [-f FPS] [-n FRAMES]\n", os.Args[0])
	fmt.Fprintln(flag.CommandLine.Output(), "modes: random, roulette, single, crescendo")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()
	defer glog.Flush()

	steps, err := loadSteps()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	var out io.Writer = os.Stdout
	if *device != "" {
		cfg := serial.DefaultConfig(*device)
		cfg.Baud = *baud
		port, err := serial.Open(cfg)
		if err != nil {
			glog.Exitf("open: %v", err)
		}
		defer port.Close()
		out = port
		glog.Infof("streaming to %s at %d baud", *device, *baud)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := sequence.PlayAll(ctx, out, steps); err != nil && ctx.Err() == nil {
		glog.Errorf("play: %v", err)
		glog.Flush()
		os.Exit(1)
	}
}

func loadSteps() ([]sequence.Step, error) {
	if *script == "" {
		step, err := sequence.ParseArgs(flag.Args())
		if err != nil {
			return nil, err
		}
		return []sequence.Step{step}, nil
	}
	f, err := os.Open(*script)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return sequence.ParseScript(f)
}
