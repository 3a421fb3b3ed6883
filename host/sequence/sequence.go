// Package sequence generates pixel frames for the LED ring and streams them
// to the device.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"time"

	"ledring/ws2812b"
)

// LEDs is the ring size every frame covers.
const LEDs = ws2812b.LEDs

// ErrColorFormat is returned for colour strings that are not six hex digits.
var ErrColorFormat = errors.New("color string must have the format 'AB10FF'")

// Color is an RGB triple in wire order.
type Color [3]byte

// ParseColor parses six hex digits, RRGGBB.
func ParseColor(s string) (Color, error) {
	var c Color
	if len(s) != 6 {
		return c, fmt.Errorf("%q: %w", s, ErrColorFormat)
	}
	for i := range c {
		v, err := strconv.ParseUint(s[2*i:2*i+2], 16, 8)
		if err != nil {
			return c, fmt.Errorf("%q: %w", s, ErrColorFormat)
		}
		c[i] = byte(v)
	}
	return c, nil
}

func (c Color) String() string {
	return fmt.Sprintf("%02X%02X%02X", c[0], c[1], c[2])
}

func (c Color) paint(f *ws2812b.Frame, led int) {
	copy(f[3*led:3*led+3], c[:])
}

// Generator produces frames. Next fills f and reports false once the
// sequence is over, in which case f is not used.
type Generator interface {
	Next(f *ws2812b.Frame) bool
}

// Random fills every frame with random bytes.
type Random struct {
	rng *rand.Rand
}

// NewRandom returns a random generator drawing from src.
func NewRandom(src rand.Source) *Random {
	return &Random{rng: rand.New(src)}
}

func (g *Random) Next(f *ws2812b.Frame) bool {
	g.rng.Read(f[:])
	return true
}

// Roulette lights one LED, moving one position per frame.
type Roulette struct {
	Color Color
	pos   int
}

func (g *Roulette) Next(f *ws2812b.Frame) bool {
	*f = ws2812b.Frame{}
	g.Color.paint(f, g.pos)
	g.pos = (g.pos + 1) % LEDs
	return true
}

// Single lights the whole ring once.
type Single struct {
	Color Color
	done  bool
}

func (g *Single) Next(f *ws2812b.Frame) bool {
	if g.done {
		return false
	}
	for i := 0; i < LEDs; i++ {
		g.Color.paint(f, i)
	}
	g.done = true
	return true
}

// Crescendo sweeps a lit window around the ring. The window grows by one
// LED per revolution up to LEDs-2, then shrinks back to one.
type Crescendo struct {
	Color  Color
	pos    int
	size   int
	shrink bool
}

func (g *Crescendo) Next(f *ws2812b.Frame) bool {
	if g.size == 0 {
		g.size = 1
	}
	*f = ws2812b.Frame{}
	end := g.pos + g.size
	for i := 0; i < LEDs; i++ {
		var lit bool
		if end <= LEDs {
			lit = i >= g.pos && i < end
		} else {
			lit = i < end%LEDs || i >= g.pos
		}
		if lit {
			g.Color.paint(f, i)
		}
	}

	// the sweep dwells one extra frame at pos == LEDs before wrapping
	if g.pos < LEDs {
		g.pos++
		return true
	}
	g.pos = 0
	if !g.shrink {
		g.size++
		if g.size == LEDs-1 {
			g.shrink = true
			g.size--
		}
	} else {
		g.size--
		if g.size == 0 {
			g.size = 1
			g.shrink = false
		}
	}
	return true
}

// Take stops g after n frames. n <= 0 leaves g unbounded.
func Take(g Generator, n int) Generator {
	if n <= 0 {
		return g
	}
	return &limited{g: g, left: n}
}

type limited struct {
	g    Generator
	left int
}

func (l *limited) Next(f *ws2812b.Frame) bool {
	if l.left == 0 {
		return false
	}
	l.left--
	return l.g.Next(f)
}

// Play writes frames from g to w, one every 1/fps seconds, until g ends or
// ctx is done. fps <= 0 writes as fast as w accepts.
func Play(ctx context.Context, w io.Writer, g Generator, fps int) error {
	var tick <-chan time.Time
	if fps > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(fps))
		defer ticker.Stop()
		tick = ticker.C
	}

	var f ws2812b.Frame
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !g.Next(&f) {
			return nil
		}
		if _, err := w.Write(f[:]); err != nil {
			return fmt.Errorf("write frame: %w", err)
		}
		if tick == nil {
			continue
		}
		select {
		case <-tick:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
