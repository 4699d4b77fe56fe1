// Package harness ties the transport lifecycle to a `go test` binary.
//
// A test package provisions one transport for all of its tests from TestMain:
//
//	var dut *harness.Session
//
//	func TestMain(m *testing.M) {
//		dut = harness.NewSession(harness.FlagConfig())
//		os.Exit(dut.Run(m))
//	}
//
// and each test borrows it with dut.Transport(t). Hardware mode is the
// default; pass -simulate (go test ./scenarios -args -simulate) or set
// DUT_SIMULATE=1 to use the simulated board. Without a matching board the
// tests are reported as skipped.
package harness

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"testing"

	"github.com/coreyjharrington-sys/STM32DevBoardTestingProject/config"
	"github.com/coreyjharrington-sys/STM32DevBoardTestingProject/driver"
	"github.com/coreyjharrington-sys/STM32DevBoardTestingProject/logger"
)

// Runner runs the tests of a package; *testing.M satisfies it
type Runner interface {
	Run() int
}

// Session owns the transport of one test binary
type Session struct {
	prov *driver.Provisioner
}

// FlagConfig registers the -simulate flag, parses the command line and applies
// environment overrides. Call it from TestMain; later calls reuse the parsed flag.
func FlagConfig() config.Config {
	cfg := config.Default()
	if f := flag.Lookup("simulate"); f != nil {
		cfg.Simulate, _ = strconv.ParseBool(f.Value.String())
	} else {
		config.RegisterFlags(flag.CommandLine, &cfg)
		flag.Parse()
	}
	config.ApplyEnv(&cfg)
	return cfg
}

// NewSession prepares a session; nothing is opened until Run
func NewSession(cfg config.Config, opts ...func(*driver.Options)) *Session {
	o := driver.Options{Config: cfg}
	for _, fn := range opts {
		fn(&o)
	}
	return &Session{prov: driver.NewProvisioner(o)}
}

// Run provisions the transport, runs the tests and closes the transport
// once they have all finished, whatever their outcome. A configuration or
// open failure aborts the session with exit code 1 before any test runs.
func (s *Session) Run(m Runner) (code int) {
	_, err := s.prov.Provision(context.Background())
	switch {
	case err == nil:
	case errors.Is(err, driver.ErrDeviceNotFound):
		logger.Warn("%v; hardware tests will be skipped", err)
	default:
		logger.Error("Session setup failed: %v", err)
		fmt.Fprintf(os.Stderr, "harness: %v\n", err)
		return 1
	}

	defer func() {
		if err := s.prov.Close(); err != nil {
			logger.Error("Closing transport: %v", err)
			if code == 0 {
				code = 1
			}
		}
	}()

	return m.Run()
}

// Transport returns the session's transport. The calling test is skipped
// when no board was found and fails when the session is not ready.
func (s *Session) Transport(tb testing.TB) driver.Transport {
	tb.Helper()

	t, err := s.prov.Transport()
	switch {
	case err == nil:
		return t
	case errors.Is(err, driver.ErrDeviceNotFound):
		tb.Skip("no matching device found")
	default:
		tb.Fatalf("transport unavailable: %v", err)
	}
	return nil
}

// State reports where the session's transport is in its lifecycle
func (s *Session) State() driver.State {
	return s.prov.State()
}
