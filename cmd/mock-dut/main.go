// mock-dut emulates the STM32 dev board on a TCP port. Point the harness at
// it with DUT_SERIAL_PORT=tcp://localhost:9999 to run the real transport
// without hardware.
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreyjharrington-sys/STM32DevBoardTestingProject/emulator"
	"github.com/coreyjharrington-sys/STM32DevBoardTestingProject/logger"
)

func main() {
	addr := flag.String("listen", ":9999", "TCP listen address")
	delay := flag.Duration("delay", 0, "Processing delay before each reply")
	logDir := flag.String("log-dir", "logs", "Log directory")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	if err := logger.Init(*logDir, *logLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		logger.Error("Failed to start mock-dut: %v", err)
		return
	}

	logger.Info("=== STM32 board emulator ===")
	logger.Info("Listening on TCP %s", ln.Addr())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &emulator.Server{Delay: *delay}
	if err := srv.Serve(ctx, ln); err != nil {
		logger.Error("mock-dut stopped: %v", err)
		return
	}
	logger.Info("mock-dut stopped")
}
