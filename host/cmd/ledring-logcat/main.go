// Command ledring-logcat prints the telemetry the LED ring reports once a
// second:
//
//	CPU: 0.52% - CS: 4, F: 1
//
// It reads stdin unless -device names a serial port. With -mqtt, or
// LEDRING_MQTT_URL set, each report is also published as JSON.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"

	"github.com/golang/glog"

	"ledring/host/logcat"
	"ledring/host/serial"
)

var (
	device  = flag.String("device", "", "Serial device path, stdin if empty")
	baud    = flag.Int("baud", serial.DefaultBaud, "Baud rate")
	mqttURL = flag.String("mqtt", "", "MQTT broker URL, e.g. mqtt://host:1883/ledring/telemetry")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	if *mqttURL == "" {
		if val := os.Getenv("LEDRING_MQTT_URL"); val != "" {
			*mqttURL = val
		}
	}

	var in io.Reader = os.Stdin
	if *device != "" {
		cfg := serial.DefaultConfig(*device)
		cfg.Baud = *baud
		port, err := serial.Open(cfg)
		if err != nil {
			glog.Exitf("open: %v", err)
		}
		defer port.Close()
		in = port
	}

	sinks := []logcat.Sink{&logcat.Printer{W: os.Stdout}}
	if *mqttURL != "" {
		sink, err := logcat.DialMQTT(*mqttURL)
		if err != nil {
			glog.Exitf("mqtt: %v", err)
		}
		defer sink.Close()
		glog.Infof("publishing to %s", sink.Topic)
		sinks = append(sinks, sink)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := logcat.Run(ctx, in, sinks...); err != nil && ctx.Err() == nil {
		glog.Errorf("logcat: %v", err)
		glog.Flush()
		os.Exit(1)
	}
}
