package emulator

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreyjharrington-sys/STM32DevBoardTestingProject/driver"
)

func startServer(t *testing.T, s *Server) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})
	return ln.Addr().String()
}

func TestServerOverLineTransport(t *testing.T) {
	addr := startServer(t, &Server{})

	link := driver.LinkParams{BaudRate: 115200, ReadTimeout: time.Second}
	tr, err := driver.OpenLine(context.Background(), "tcp://"+addr, link)
	require.NoError(t, err)
	defer tr.Close()

	tests := []struct {
		cmd  string
		want string
	}{
		{"STATUS", "OK"},
		{"VERSION", "v1.0"},
		{"ADD 5 7", "12"},
		{"SUBTRACT 10 3", "7"},
		{"MULTIPLY 4 6", "24"},
		{"DIVIDE 10 3", "3 (remainder 1)"},
		{"DIVIDE 7 0", "Error: divide by zero"},
		{"FOO", "Unknown command"},
	}
	for _, tt := range tests {
		reply, err := driver.SendAndReceive(tr, tt.cmd)
		require.NoError(t, err, tt.cmd)
		assert.Equal(t, tt.want, reply, tt.cmd)
	}
}

func TestServerDelayBeyondTimeout(t *testing.T) {
	addr := startServer(t, &Server{Delay: 300 * time.Millisecond})

	link := driver.LinkParams{BaudRate: 115200, ReadTimeout: 50 * time.Millisecond}
	tr, err := driver.OpenLine(context.Background(), "tcp://"+addr, link)
	require.NoError(t, err)
	defer tr.Close()

	reply, err := driver.SendAndReceive(tr, "STATUS")
	require.NoError(t, err)
	assert.Empty(t, reply)
}

func TestServeStopsWhileClientsConnect(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- (&Server{}).Serve(ctx, ln) }()

	stop := make(chan struct{})
	dialed := make(chan struct{})
	go func() {
		defer close(dialed)
		for {
			select {
			case <-stop:
				return
			default:
			}
			conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
			if err != nil {
				continue
			}
			// idle clients keep their handlers blocked in a read
			defer conn.Close()
		}
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Error("server did not stop with clients connecting")
	}
	close(stop)
	<-dialed
}
