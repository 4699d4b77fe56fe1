// Package emulator serves the board's line protocol over TCP so the real
// transport can be exercised without hardware (DUT_SERIAL_PORT=tcp://host:port).
package emulator

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/coreyjharrington-sys/STM32DevBoardTestingProject/logger"
	"github.com/coreyjharrington-sys/STM32DevBoardTestingProject/protocol"
)

// Server answers each request line with the firmware reply
type Server struct {
	// Delay is applied before every reply to mimic firmware processing time
	Delay time.Duration
}

// Serve accepts connections on ln until ctx is done. It always closes ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	var (
		mu    sync.Mutex
		conns = make(map[net.Conn]struct{})
	)

	g.Go(func() error {
		<-ctx.Done()
		ln.Close()
		mu.Lock()
		for c := range conns {
			c.Close()
		}
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					return nil
				}
				return err
			}
			logger.Info("[mock-dut] Client connected: %s", conn.RemoteAddr())

			mu.Lock()
			conns[conn] = struct{}{}
			mu.Unlock()
			// the closer may already have swept conns
			if ctx.Err() != nil {
				conn.Close()
			}

			g.Go(func() error {
				s.handle(ctx, conn)
				mu.Lock()
				delete(conns, conn)
				mu.Unlock()
				return nil
			})
		}
	})

	return g.Wait()
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			logger.Info("[mock-dut] Connection closed: %s", conn.RemoteAddr())
			return
		}
		logger.Protocol("RX", "mock-dut", line)

		if s.Delay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.Delay):
			}
		}

		reply := protocol.Reply(line) + protocol.Terminator
		logger.Protocol("TX", "mock-dut", []byte(reply))
		if _, err := conn.Write([]byte(reply)); err != nil {
			logger.Error("[mock-dut] Write failed: %v", err)
			return
		}
	}
}
