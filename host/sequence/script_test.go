package sequence

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"ledring/ws2812b"
)

func TestParseArgs(t *testing.T) {
	step, err := ParseArgs([]string{"roulette", "00FF00", "-f", "10", "-n", "48"})
	require.NoError(t, err)
	require.Equal(t, "roulette", step.Mode)
	require.Equal(t, 10, step.FPS)

	step, err = ParseArgs([]string{"single", "FF0000"})
	require.NoError(t, err)
	require.IsType(t, &Single{}, step.Gen)

	step, err = ParseArgs([]string{"random", "-f", "30", "-seed", "7"})
	require.NoError(t, err)
	require.Equal(t, 30, step.FPS)
}

func TestParseArgsErrors(t *testing.T) {
	_, err := ParseArgs(nil)
	require.ErrorIs(t, err, ErrUnknownMode)

	_, err = ParseArgs([]string{"strobe"})
	require.ErrorIs(t, err, ErrUnknownMode)

	_, err = ParseArgs([]string{"roulette", "-f", "10"})
	require.ErrorIs(t, err, ErrNeedColor)

	_, err = ParseArgs([]string{"crescendo", "00FF00"})
	require.ErrorIs(t, err, ErrNeedFPS)

	_, err = ParseArgs([]string{"single", "red"})
	require.ErrorIs(t, err, ErrColorFormat)

	_, err = ParseArgs([]string{"random", "-f", "10", "extra"})
	require.Error(t, err)
}

func TestParseScript(t *testing.T) {
	script := `
# warm up
single "FF0000"
roulette 00FF00 -f 1000 -n 48

crescendo '0000FF' -f 1000 -n 10
`
	steps, err := ParseScript(strings.NewReader(script))
	require.NoError(t, err)
	require.Len(t, steps, 3)
	require.Equal(t, []string{"single", "roulette", "crescendo"},
		[]string{steps[0].Mode, steps[1].Mode, steps[2].Mode})

	var out bytes.Buffer
	require.NoError(t, PlayAll(context.Background(), &out, steps))
	require.Equal(t, (1+48+10)*ws2812b.FrameSize, out.Len())
}

func TestParseScriptReportsLine(t *testing.T) {
	_, err := ParseScript(strings.NewReader("single FF0000\n\nroulette nope -f 1\n"))
	require.ErrorIs(t, err, ErrColorFormat)
	require.Contains(t, err.Error(), "line 3")

	_, err = ParseScript(strings.NewReader(`single "FF0000`))
	require.ErrorContains(t, err, "line 1")
}
