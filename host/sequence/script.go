package sequence

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/google/shlex"
)

var (
	ErrUnknownMode = errors.New("unknown mode")
	ErrNeedFPS     = errors.New("mode needs -f FPS")
	ErrNeedColor   = errors.New("mode needs a COLOR argument")
)

// Step is one playlist entry.
type Step struct {
	Mode string
	Gen  Generator
	FPS  int
}

// ParseArgs builds a step from a command line such as
// "roulette 00FF00 -f 10 -n 48". Animated modes need -f; -n bounds the
// number of frames.
func ParseArgs(args []string) (Step, error) {
	if len(args) == 0 {
		return Step{}, ErrUnknownMode
	}
	step := Step{Mode: args[0]}
	rest := args[1:]

	var color Color
	switch step.Mode {
	case "roulette", "single", "crescendo":
		if len(rest) == 0 || strings.HasPrefix(rest[0], "-") {
			return step, fmt.Errorf("%s: %w", step.Mode, ErrNeedColor)
		}
		c, err := ParseColor(rest[0])
		if err != nil {
			return step, err
		}
		color, rest = c, rest[1:]
	case "random":
	default:
		return step, fmt.Errorf("%q: %w", step.Mode, ErrUnknownMode)
	}

	fs := flag.NewFlagSet(step.Mode, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fps := fs.Int("f", 0, "frames per second")
	count := fs.Int("n", 0, "number of frames, 0 for no limit")
	seed := fs.Int64("seed", 0, "random seed, 0 for time based")
	if err := fs.Parse(rest); err != nil {
		return step, fmt.Errorf("%s: %w", step.Mode, err)
	}
	if fs.NArg() > 0 {
		return step, fmt.Errorf("%s: unexpected argument %q", step.Mode, fs.Arg(0))
	}
	step.FPS = *fps

	switch step.Mode {
	case "random":
		if *seed == 0 {
			*seed = time.Now().UnixNano()
		}
		step.Gen = NewRandom(rand.NewSource(*seed))
	case "roulette":
		step.Gen = &Roulette{Color: color}
	case "single":
		step.Gen = &Single{Color: color}
		return step, nil
	case "crescendo":
		step.Gen = &Crescendo{Color: color}
	}
	if step.FPS <= 0 {
		return step, fmt.Errorf("%s: %w", step.Mode, ErrNeedFPS)
	}
	step.Gen = Take(step.Gen, *count)
	return step, nil
}

// ParseScript reads a playlist, one command line per line. Blank lines and
// lines starting with # are skipped. Arguments are split with shell quoting
// rules.
func ParseScript(r io.Reader) ([]Step, error) {
	var steps []Step
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		args, err := shlex.Split(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		step, err := ParseArgs(args)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		steps = append(steps, step)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return steps, nil
}

// PlayAll plays steps in order. A step without a frame limit never ends,
// so only the last step should be unbounded.
func PlayAll(ctx context.Context, w io.Writer, steps []Step) error {
	for _, s := range steps {
		if err := Play(ctx, w, s.Gen, s.FPS); err != nil {
			return fmt.Errorf("%s: %w", s.Mode, err)
		}
	}
	return nil
}
