package serial

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigMatchesFirmware(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyUSB0")
	require.Equal(t, "/dev/ttyUSB0", cfg.Device)
	require.Equal(t, 115200, cfg.Baud)
	require.Zero(t, cfg.ReadTimeout)
}

func TestOpenRejectsNilConfig(t *testing.T) {
	_, err := Open(nil)
	require.ErrorIs(t, err, errNoConfig)
}

func TestOpenMissingDevice(t *testing.T) {
	_, err := Open(DefaultConfig("/nonexistent/ledring-tty"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "/nonexistent/ledring-tty")
}
