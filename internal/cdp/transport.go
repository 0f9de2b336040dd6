// Package cdp implements the CDP transport core: a single WebSocket
// connection multiplexed across many in-flight commands and subscribers,
// with correlated responses, per-command deadlines and capped-backoff
// reconnect.
package cdp

import (
	"context"
	"encoding/json"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// ReconnectConfig bounds the capped-exponential-backoff reconnect loop.
type ReconnectConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultReconnectConfig mirrors the transport's original defaults: five
// attempts, starting at 100ms and capping at 5s.
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		MaxRetries:     5,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
	}
}

// Config configures a transport connection.
type Config struct {
	ConnectTimeout  time.Duration
	CommandTimeout  time.Duration
	ChannelCapacity int
	Reconnect       ReconnectConfig
	Logger          logrus.FieldLogger
}

// DefaultConfig returns sane defaults for interactive use.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout:  10 * time.Second,
		CommandTimeout:  30 * time.Second,
		ChannelCapacity: 256,
		Reconnect:       DefaultReconnectConfig(),
	}
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		l := logrus.New()
		l.Out = io.Discard
		c.Logger = l
	}
	return c
}

// sendResult is the single-shot reply delivered to a SendCommand caller.
type sendResult struct {
	result json.RawMessage
	err    error
}

type sendCommandCmd struct {
	command  Command
	reply    chan sendResult
	deadline time.Time
}

type subscribeCmd struct {
	method    string
	sessionID string
	sink      chan Event
	done      chan struct{}
}

type shutdownCmd struct{}

// handle is the cloneable, shareable façade over a running transport task.
// Client and Session wrap it; cloning a handle never opens a new socket.
type handle struct {
	commandCh    chan any
	connected    *atomic.Bool
	nextID       *atomic.Uint64
	connectionID string
}

func (h *handle) nextMessageID() uint64 {
	return h.nextID.Add(1)
}

func (h *handle) isConnected() bool {
	return h.connected.Load()
}

// ConnectionID returns the identifier stamped onto this transport at spawn
// time, used to correlate log lines across reconnects of the same Client.
func (h *handle) ConnectionID() string {
	return h.connectionID
}

// spawn dials url and starts the transport task that owns the resulting
// connection for its whole lifetime.
func spawn(ctx context.Context, url string, cfg Config) (*handle, error) {
	cfg = cfg.withDefaults()

	conn, err := connectWS(ctx, url, cfg.ConnectTimeout)
	if err != nil {
		return nil, errConnection(err.Error())
	}

	connected := &atomic.Bool{}
	connected.Store(true)

	connectionID := uuid.New().String()
	t := &task{
		url:          url,
		conn:         conn,
		commandCh:    make(chan any, cfg.ChannelCapacity),
		pending:      make(map[uint64]pendingRequest),
		subs:         make(map[subKey][]*subscriber),
		connected:    connected,
		cfg:          cfg,
		logger:       cfg.Logger.WithField("connection_id", connectionID),
		connectionID: connectionID,
	}
	t.inbound = t.startReader(conn)

	go t.run(ctx)

	return &handle{
		commandCh:    t.commandCh,
		connected:    connected,
		nextID:       &atomic.Uint64{},
		connectionID: connectionID,
	}, nil
}

func connectWS(ctx context.Context, url string, timeout time.Duration) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.DialContext(dialCtx, url, nil)
	return conn, err
}

type pendingRequest struct {
	reply    chan sendResult
	method   string
	deadline time.Time
}

type subKey struct {
	method    string
	sessionID string
}

// subscriber is one registered event sink. done is closed by the caller's
// Subscription.Unsubscribe to signal the task to prune it on next delivery.
type subscriber struct {
	ch   chan Event
	done chan struct{}
}

type reconnectFailure struct {
	attempts  int
	lastError string
}

type frame struct {
	data []byte
	err  error
}

// task is the single owner of the WebSocket connection. Every mutation of
// pending and subs happens on its goroutine; callers only ever touch
// commandCh.
type task struct {
	url       string
	conn      *websocket.Conn
	inbound   chan frame
	commandCh chan any
	pending   map[uint64]pendingRequest
	subs      map[subKey][]*subscriber
	connected    *atomic.Bool
	cfg          Config
	logger       logrus.FieldLogger
	connectionID string

	reconnectState *reconnectFailure
}

func (t *task) startReader(conn *websocket.Conn) chan frame {
	ch := make(chan frame)
	go func() {
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				ch <- frame{err: err}
				return
			}
			if mt != websocket.TextMessage {
				continue
			}
			ch <- frame{data: data}
		}
	}()
	return ch
}

func (t *task) run(ctx context.Context) {
	for {
		if t.reconnectState != nil {
			select {
			case cmd, ok := <-t.commandCh:
				if !ok {
					return
				}
				if t.handleDrainCommand(cmd) {
					return
				}
			case <-ctx.Done():
				return
			}
			continue
		}

		deadlineCh, stop := t.armDeadline()

		select {
		case f, ok := <-t.inbound:
			if !ok {
				stop()
				continue
			}
			if f.err != nil {
				stop()
				t.handleDisconnect(ctx)
				continue
			}
			t.handleInbound(f.data)
		case cmd, ok := <-t.commandCh:
			if !ok {
				stop()
				t.shutdown()
				return
			}
			shouldStop := t.handleCommand(cmd)
			stop()
			if shouldStop {
				t.shutdown()
				return
			}
			continue
		case <-deadlineCh:
			t.sweepTimeouts()
		case <-ctx.Done():
			stop()
			t.shutdown()
			return
		}
		stop()
	}
}

// armDeadline arms a timer for the earliest pending deadline, or returns a
// nil channel (which blocks forever in a select) when nothing is pending.
func (t *task) armDeadline() (<-chan time.Time, func()) {
	var earliest time.Time
	has := false
	for _, p := range t.pending {
		if !has || p.deadline.Before(earliest) {
			earliest = p.deadline
			has = true
		}
	}
	if !has {
		return nil, func() {}
	}
	d := time.Until(earliest)
	if d < 0 {
		d = 0
	}
	timer := time.NewTimer(d)
	return timer.C, func() { timer.Stop() }
}

func (t *task) handleCommand(cmd any) (shutdown bool) {
	switch c := cmd.(type) {
	case *sendCommandCmd:
		b, err := json.Marshal(c.command)
		if err != nil {
			c.reply <- sendResult{err: errInternal(err.Error())}
			return false
		}
		if err := t.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			c.reply <- sendResult{err: errConnection(err.Error())}
			return false
		}
		t.pending[c.command.ID] = pendingRequest{reply: c.reply, method: c.command.Method, deadline: c.deadline}
	case *subscribeCmd:
		key := subKey{method: c.method, sessionID: c.sessionID}
		t.subs[key] = append(t.subs[key], &subscriber{ch: c.sink, done: c.done})
	case *shutdownCmd:
		return true
	}
	return false
}

func (t *task) handleDrainCommand(cmd any) (shutdown bool) {
	switch c := cmd.(type) {
	case *sendCommandCmd:
		c.reply <- sendResult{err: errReconnectFailed(t.reconnectState.attempts, t.reconnectState.lastError)}
	case *subscribeCmd:
		// Silently discarded: the connection will never come back.
	case *shutdownCmd:
		return true
	}
	return false
}

func (t *task) handleInbound(data []byte) {
	resp, event, err := classify(data)
	if err != nil {
		t.logger.WithError(err).Debug("discarding malformed CDP frame")
		return
	}

	if resp != nil {
		pending, ok := t.pending[resp.ID]
		if !ok {
			return // late or duplicate reply; drop silently
		}
		delete(t.pending, resp.ID)
		if resp.Err != nil {
			pending.reply <- sendResult{err: &Error{Kind: KindProtocol, Code: resp.Err.Code, Message: resp.Err.Message}}
		} else {
			pending.reply <- sendResult{result: resp.Result}
		}
		return
	}

	if event != nil {
		key := subKey{method: event.Method, sessionID: event.SessionID}
		t.dispatchEvent(key, event)
	}
}

func (t *task) dispatchEvent(key subKey, event *Event) {
	subs := t.subs[key]
	if len(subs) == 0 {
		return
	}

	kept := subs[:0]
	for _, s := range subs {
		select {
		case <-s.done:
			continue // unsubscribed; prune
		default:
		}

		select {
		case s.ch <- Event{Method: event.Method, Params: event.Params, SessionID: event.SessionID}:
			kept = append(kept, s)
		case <-s.done:
			// pruned
		default:
			// sink congested; drop this event but keep the subscriber
			kept = append(kept, s)
			t.logger.WithField("method", event.Method).Warn("dropping event for congested subscriber")
		}
	}
	t.subs[key] = kept
}

func (t *task) sweepTimeouts() {
	now := time.Now()
	for id, p := range t.pending {
		if !p.deadline.After(now) {
			p.reply <- sendResult{err: errCommandTimeout(p.method)}
			delete(t.pending, id)
		}
	}
}

func (t *task) drainPending(err *Error) {
	for id, p := range t.pending {
		p.reply <- sendResult{err: err}
		delete(t.pending, id)
	}
}

func (t *task) handleDisconnect(ctx context.Context) {
	t.connected.Store(false)
	t.drainPending(errConnectionClosed())

	backoff := t.cfg.Reconnect.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= t.cfg.Reconnect.MaxRetries; attempt++ {
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}

		conn, err := connectWS(ctx, t.url, t.cfg.ConnectTimeout)
		if err == nil {
			t.conn = conn
			t.inbound = t.startReader(conn)
			t.connected.Store(true)
			t.logger.Info("CDP transport reconnected")
			return
		}

		lastErr = err
		t.logger.WithError(err).WithField("attempt", attempt).Warn("CDP reconnect attempt failed")

		backoff *= 2
		if backoff > t.cfg.Reconnect.MaxBackoff {
			backoff = t.cfg.Reconnect.MaxBackoff
		}
	}

	msg := ""
	if lastErr != nil {
		msg = lastErr.Error()
	}
	t.reconnectState = &reconnectFailure{attempts: t.cfg.Reconnect.MaxRetries, lastError: msg}
	t.logger.WithField("attempts", t.cfg.Reconnect.MaxRetries).Error("CDP reconnect exhausted")
}

func (t *task) shutdown() {
	t.drainPending(errConnectionClosed())
	if t.conn != nil {
		_ = t.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = t.conn.Close()
	}
	t.connected.Store(false)
}
