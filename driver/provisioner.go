package driver

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/coreyjharrington-sys/STM32DevBoardTestingProject/config"
	"github.com/coreyjharrington-sys/STM32DevBoardTestingProject/logger"
)

// State is the lifecycle position of a session's transport
type State int

const (
	StateUnprovisioned State = iota
	StateReady
	StateSkipped
	StateClosed
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateUnprovisioned:
		return "UNPROVISIONED"
	case StateReady:
		return "READY"
	case StateSkipped:
		return "SKIPPED"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// OpenFunc opens the real transport on a discovered port
type OpenFunc func(ctx context.Context, portName string, link LinkParams) (Transport, error)

// Options configures a Provisioner. Zero-valued fields take defaults:
// DefaultLinkParams, SystemPorts and OpenLine.
type Options struct {
	Config    config.Config
	Link      LinkParams // BaudRate is replaced by the board profile's
	Enumerate Enumerator
	Open      OpenFunc
}

// Provisioner owns the one transport of a test session. It alone opens and closes it;
// everyone else borrows the handle between Provision and Close.
type Provisioner struct {
	mu        sync.Mutex
	id        string
	cfg       config.Config
	link      LinkParams
	enumerate Enumerator
	open      OpenFunc

	state     State
	transport Transport
}

func NewProvisioner(opts Options) *Provisioner {
	p := &Provisioner{
		id:        uuid.NewString(),
		cfg:       opts.Config,
		link:      opts.Link,
		enumerate: opts.Enumerate,
		open:      opts.Open,
		state:     StateUnprovisioned,
	}
	if p.link == (LinkParams{}) {
		p.link = DefaultLinkParams()
	}
	if p.enumerate == nil {
		p.enumerate = SystemPorts
	}
	if p.open == nil {
		p.open = func(ctx context.Context, portName string, link LinkParams) (Transport, error) {
			return OpenLine(ctx, portName, link)
		}
	}
	return p
}

// SessionID identifies this session in the logs
func (p *Provisioner) SessionID() string {
	return p.id
}

// State returns the current state
func (p *Provisioner) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Provision builds the session's transport. In simulate mode that is a
// SimulatedTransport; otherwise the board profile is loaded, the port is
// located by identity and opened. A missing device moves the session to
// StateSkipped and returns an error wrapping ErrDeviceNotFound; profile
// problems return a *config.Error and leave the state unchanged.
func (p *Provisioner) Provision(ctx context.Context) (Transport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateUnprovisioned {
		return nil, ErrAlreadyProvisioned
	}

	if p.cfg.Simulate {
		logger.Info("Session %s: using simulated board", p.id)
		p.transport = NewSimulated(p.link)
		p.transitionTo(StateReady)
		return p.transport, nil
	}

	dev, err := config.LoadDevice(p.cfg.ConfigFile, p.cfg.Board)
	if err != nil {
		logger.Error("Session %s: %v", p.id, err)
		return nil, err
	}

	link := p.link
	link.BaudRate = dev.BaudRate
	id := Identity{VendorID: dev.VendorID, ProductID: dev.ProductID}

	portName := p.cfg.Port
	if portName != "" {
		logger.Info("Session %s: using port %s, discovery skipped", p.id, portName)
	} else {
		name, ok, err := FindPort(id, p.enumerate)
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", id, err)
		}
		if !ok {
			logger.Warn("Session %s: no %s device found", p.id, p.cfg.Board)
			p.transitionTo(StateSkipped)
			return nil, fmt.Errorf("%w: %s (%s)", ErrDeviceNotFound, p.cfg.Board, id)
		}
		portName = name
	}

	t, err := p.open(ctx, portName, link)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", portName, err)
	}

	p.transport = t
	p.transitionTo(StateReady)
	return t, nil
}

// Transport returns the provisioned handle
func (p *Provisioner) Transport() (Transport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case StateReady:
		return p.transport, nil
	case StateSkipped:
		return nil, ErrDeviceNotFound
	case StateClosed:
		return nil, ErrClosed
	default:
		return nil, ErrNotReady
	}
}

// Close releases the transport. The transport's Close runs at most once per session.
func (p *Provisioner) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case StateReady:
		err := p.transport.Close()
		p.transport = nil
		p.transitionTo(StateClosed)
		return err
	case StateUnprovisioned:
		p.transitionTo(StateClosed)
	}
	return nil
}

// WithTransport provisions, runs fn with the transport and closes it, even
// when fn fails or panics.
func (p *Provisioner) WithTransport(ctx context.Context, fn func(Transport) error) (err error) {
	t, err := p.Provision(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := p.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(t)
}

func (p *Provisioner) transitionTo(s State) {
	logger.Debug("Session %s: %s -> %s", p.id, p.state, s)
	p.state = s
}
