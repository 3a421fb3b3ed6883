//go:build rp2040

package main

import (
	"errors"
	"runtime/interrupt"
	"runtime/volatile"

	"device/rp"

	"ledring/core"
)

var errNoUpdate = errors.New("alarm: update flag not set")

// alarmTimer is an auto-reload timer built on one of the four system timer
// alarms. The alarm interrupt raises line on the runtime. ALARM0 belongs to
// the TinyGo runtime's sleep timer and ALARM1 is left free, so only 2 and 3
// are handed out here.
type alarmTimer struct {
	n      uint8
	period uint32 // in ticks of the 1 MHz timer
	line   core.TaskID
	rt     *core.Runtime

	running volatile.Register8
	update  volatile.Register8
	target  uint32
}

var alarms [4]*alarmTimer

func newAlarm(n uint8, period uint32, line core.TaskID) *alarmTimer {
	if n != latchAlarm && n != telemetryAlarm {
		panic("alarm: ALARM0 and ALARM1 are not ours")
	}
	a := &alarmTimer{n: n, period: period, line: line}
	alarms[n] = a
	return a
}

func (a *alarmTimer) alarmReg() *volatile.Register32 {
	switch a.n {
	case 0:
		return &rp.TIMER.ALARM0
	case 1:
		return &rp.TIMER.ALARM1
	case 2:
		return &rp.TIMER.ALARM2
	}
	return &rp.TIMER.ALARM3
}

// arm schedules the next update one period after the previous target.
func (a *alarmTimer) arm() {
	a.target += a.period
	a.alarmReg().Set(a.target)
}

func (a *alarmTimer) Resume() {
	if a.running.Get() != 0 {
		return
	}
	a.running.Set(1)
	rp.TIMER.INTE.SetBits(1 << a.n)
	a.target = timerRAWL.Get()
	a.arm()
}

func (a *alarmTimer) Restart() {
	if a.running.Get() == 0 {
		return
	}
	a.target = timerRAWL.Get()
	a.arm()
}

func (a *alarmTimer) Pause() {
	a.running.Set(0)
	rp.TIMER.ARMED.Set(1 << a.n)
	rp.TIMER.INTE.ClearBits(1 << a.n)
}

func (a *alarmTimer) Running() bool {
	return a.running.Get() != 0
}

func (a *alarmTimer) Wait() error {
	if a.update.Get() == 0 {
		return errNoUpdate
	}
	a.update.Set(0)
	return nil
}

func (a *alarmTimer) fire() {
	rp.TIMER.INTR.Set(1 << a.n)
	a.update.Set(1)
	if a.running.Get() != 0 {
		a.arm()
	}
	a.rt.Interrupt(a.line)
}

func initAlarms(rt *core.Runtime) {
	for _, a := range alarms {
		if a != nil {
			a.rt = rt
		}
	}
	interrupt.New(rp.IRQ_TIMER_IRQ_2, func(interrupt.Interrupt) { alarms[latchAlarm].fire() }).Enable()
	interrupt.New(rp.IRQ_TIMER_IRQ_3, func(interrupt.Interrupt) { alarms[telemetryAlarm].fire() }).Enable()
}
