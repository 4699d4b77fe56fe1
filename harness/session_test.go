package harness

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreyjharrington-sys/STM32DevBoardTestingProject/config"
	"github.com/coreyjharrington-sys/STM32DevBoardTestingProject/driver"
)

type fakeRunner struct {
	runs int
	run  func() int
}

func (f *fakeRunner) Run() int {
	f.runs++
	if f.run == nil {
		return 0
	}
	return f.run()
}

// board is a session wired to an emulated board found at /dev/ttyACM0
type board struct {
	port *driver.MockPort
}

func (b *board) options(o *driver.Options) {
	o.Link = driver.LinkParams{BaudRate: 115200, ReadTimeout: 50 * time.Millisecond}
	o.Enumerate = func() ([]driver.PortInfo, error) {
		return []driver.PortInfo{{Name: "/dev/ttyACM0", VendorID: 0x0483, ProductID: 0x5740}}, nil
	}
	o.Open = func(_ context.Context, name string, link driver.LinkParams) (driver.Transport, error) {
		b.port = driver.NewMockPort()
		return driver.NewLineTransport(b.port, name, link), nil
	}
}

func noBoard(o *driver.Options) {
	o.Enumerate = func() ([]driver.PortInfo, error) { return nil, nil }
}

func hardwareConfig(t *testing.T) config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dut_config.json")
	body := `{"STM32DevBoard": {"baudrate": 115200, "vid": "0483", "pid": "5740"}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	cfg := config.Default()
	cfg.ConfigFile = path
	return cfg
}

func TestRunClosesOnceAfterFailingTests(t *testing.T) {
	b := &board{}
	s := NewSession(hardwareConfig(t), b.options)

	runner := &fakeRunner{run: func() int {
		assert.Equal(t, driver.StateReady, s.State())
		reply, err := driver.SendAndReceive(s.Transport(t), "ADD 5 7")
		require.NoError(t, err)
		assert.Equal(t, "12", reply)
		assert.Zero(t, b.port.Closes())
		return 1
	}}

	assert.Equal(t, 1, s.Run(runner))
	assert.Equal(t, 1, runner.runs)
	assert.Equal(t, 1, b.port.Closes())
	assert.Equal(t, driver.StateClosed, s.State())
}

func TestRunClosesOnPanic(t *testing.T) {
	b := &board{}
	s := NewSession(hardwareConfig(t), b.options)

	assert.Panics(t, func() {
		s.Run(&fakeRunner{run: func() int { panic("test binary crashed") }})
	})
	assert.Equal(t, 1, b.port.Closes())
}

func TestRunSimulated(t *testing.T) {
	cfg := config.Default()
	cfg.Simulate = true
	s := NewSession(cfg, noBoard)

	runner := &fakeRunner{run: func() int {
		reply, err := driver.SendAndReceive(s.Transport(t), "VERSION")
		require.NoError(t, err)
		assert.Equal(t, "v1.0", reply)
		return 0
	}}
	assert.Equal(t, 0, s.Run(runner))
	assert.Equal(t, driver.StateClosed, s.State())
}

func TestRunSkipsWithoutDevice(t *testing.T) {
	s := NewSession(hardwareConfig(t), noBoard)

	var sub *testing.T
	runner := &fakeRunner{run: func() int {
		t.Run("needs hardware", func(t *testing.T) {
			sub = t
			s.Transport(t)
			t.Error("Transport should have skipped")
		})
		return 0
	}}

	assert.Equal(t, 0, s.Run(runner))
	assert.Equal(t, 1, runner.runs)
	require.NotNil(t, sub)
	assert.True(t, sub.Skipped())
	assert.Equal(t, driver.StateSkipped, s.State())
}

func TestRunConfigErrorIsFatal(t *testing.T) {
	cfg := config.Default()
	cfg.ConfigFile = filepath.Join(t.TempDir(), "missing.json")
	s := NewSession(cfg, noBoard)

	runner := &fakeRunner{}
	assert.Equal(t, 1, s.Run(runner))
	assert.Zero(t, runner.runs)
}

func TestFlagConfigCanBeCalledAgain(t *testing.T) {
	t.Setenv("DUT_SIMULATE", "")

	first := FlagConfig()
	require.NotNil(t, flag.Lookup("simulate"))

	require.NoError(t, flag.Set("simulate", "true"))
	t.Cleanup(func() { flag.Set("simulate", "false") })

	var again config.Config
	require.NotPanics(t, func() { again = FlagConfig() })
	assert.True(t, again.Simulate)
	assert.Equal(t, first.ConfigFile, again.ConfigFile)
}
