package pubsub

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pub"
	"go.nanomsg.org/mangos/v3/protocol/sub"

	// Register all transports
	_ "go.nanomsg.org/mangos/v3/transport/all"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/logging"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/metrics"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/tracking"
)

// SliceTopic prefixes every message on the PUB socket
var SliceTopic = []byte("SLICE:")

// ErrRecvTimeout is returned by SocketSubscriber.Recv when its deadline passes
var ErrRecvTimeout = mangos.ErrRecvTimeout

// SocketPublisher broadcasts slice events as "SLICE:<json>" messages.
// Subscribers that are not connected miss events; PUB never buffers for them.
type SocketPublisher struct {
	sock    mangos.Socket
	addr    string
	logger  logging.Logger
	metrics *metrics.Registry
	mu      sync.Mutex
	closed  bool
}

// ListenPublisher opens a PUB socket bound to addr (tcp://, ipc:// or inproc://)
func ListenPublisher(addr string, logger logging.Logger, reg *metrics.Registry) (*SocketPublisher, error) {
	sock, err := pub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create pub socket: %w", err)
	}
	if err := sock.Listen(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return &SocketPublisher{
		sock:    sock,
		addr:    addr,
		logger:  logging.OrNop(logger),
		metrics: reg,
	}, nil
}

// Addr returns the listen address
func (p *SocketPublisher) Addr() string { return p.addr }

// Send publishes one event
func (p *SocketPublisher) Send(ev SliceEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode slice event: %w", err)
	}
	msg := make([]byte, 0, len(SliceTopic)+len(payload))
	msg = append(msg, SliceTopic...)
	msg = append(msg, payload...)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return mangos.ErrClosed
	}
	if err := p.sock.Send(msg); err != nil {
		return err
	}
	if p.metrics != nil {
		p.metrics.RecordPublish("mangos")
	}
	return nil
}

// Observe implements tracking.Observer. Send failures are logged, not returned.
func (p *SocketPublisher) Observe(runID string, rec *tracking.Record) {
	if err := p.Send(EventFromRecord(runID, rec)); err != nil {
		p.logger.Warn("failed to publish slice event",
			logging.RunID(runID),
			logging.Window(rec.Label),
			logging.Error(err))
	}
}

// Close closes the socket
func (p *SocketPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.sock.Close()
}

// SocketSubscriber receives events from a SocketPublisher
type SocketSubscriber struct {
	sock mangos.Socket
}

// DialSubscriber connects a SUB socket to addr and subscribes to slice events
func DialSubscriber(addr string, timeout time.Duration) (*SocketSubscriber, error) {
	sock, err := sub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create sub socket: %w", err)
	}
	if err := sock.SetOption(mangos.OptionSubscribe, SliceTopic); err != nil {
		sock.Close()
		return nil, err
	}
	if timeout > 0 {
		if err := sock.SetOption(mangos.OptionRecvDeadline, timeout); err != nil {
			sock.Close()
			return nil, err
		}
	}
	if err := sock.Dial(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	return &SocketSubscriber{sock: sock}, nil
}

// Recv blocks for the next event or the receive deadline
func (s *SocketSubscriber) Recv() (SliceEvent, error) {
	var ev SliceEvent
	msg, err := s.sock.Recv()
	if err != nil {
		return ev, err
	}
	payload, ok := bytes.CutPrefix(msg, SliceTopic)
	if !ok {
		return ev, fmt.Errorf("unexpected message topic: %q", msg)
	}
	if err := json.Unmarshal(payload, &ev); err != nil {
		return ev, fmt.Errorf("failed to decode slice event: %w", err)
	}
	return ev, nil
}

// Close closes the socket
func (s *SocketSubscriber) Close() error {
	return s.sock.Close()
}
