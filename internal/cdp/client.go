package cdp

import (
	"context"
	"encoding/json"
	"time"
)

// Subscription is the read end of a subscriber's bounded event channel.
type Subscription struct {
	Events <-chan Event
	cancel func()
}

// Unsubscribe stops further delivery to this subscription. The transport
// task prunes it on its next delivery attempt for the same key.
func (s *Subscription) Unsubscribe() {
	s.cancel()
}

// Client is the cloneable façade over a running transport. Cloning a
// Client does not open a new socket; it shares the handle.
type Client struct {
	h   *handle
	cfg Config
	url string
}

// Connect dials url and starts owning the resulting connection.
func Connect(ctx context.Context, url string, cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()
	h, err := spawn(ctx, url, cfg)
	if err != nil {
		return nil, err
	}
	return &Client{h: h, cfg: cfg, url: url}, nil
}

// URL returns the WebSocket URL this client was constructed with.
func (c *Client) URL() string {
	return c.url
}

// IsConnected reports the transport's current connection flag.
func (c *Client) IsConnected() bool {
	return c.h.isConnected()
}

// ConnectionID returns the identifier generated when this Client's
// transport was spawned, for correlating log lines across a reconnect.
func (c *Client) ConnectionID() string {
	return c.h.ConnectionID()
}

// SendCommand issues method with params and awaits its correlated reply.
func (c *Client) SendCommand(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
	return sendCommand(ctx, c.h, c.cfg, "", method, params)
}

// Subscribe registers an event sink for method, unscoped to any session.
func (c *Client) Subscribe(method string) *Subscription {
	return subscribe(c.h, c.cfg, "", method)
}

// Close shuts the transport task down.
func (c *Client) Close() {
	c.h.commandCh <- &shutdownCmd{}
}

type attachToTargetParams struct {
	TargetID string `json:"targetId"`
	Flatten  bool   `json:"flatten"`
}

type attachToTargetResult struct {
	SessionID string `json:"sessionId"`
}

// AttachSession attaches to targetID via Target.attachToTarget and returns
// a Session Handle bound to the resulting session id.
func (c *Client) AttachSession(ctx context.Context, targetID string) (*Session, error) {
	params, err := json.Marshal(attachToTargetParams{TargetID: targetID, Flatten: true})
	if err != nil {
		return nil, errInternal(err.Error())
	}

	result, err := c.SendCommand(ctx, "Target.attachToTarget", params)
	if err != nil {
		return nil, err
	}

	var parsed attachToTargetResult
	if err := json.Unmarshal(result, &parsed); err != nil || parsed.SessionID == "" {
		return nil, errInvalidResponse("Target.attachToTarget response is missing sessionId")
	}

	return &Session{client: c, sessionID: parsed.SessionID}, nil
}

func sendCommand(ctx context.Context, h *handle, cfg Config, sessionID, method string, params json.RawMessage) (json.RawMessage, error) {
	reply := make(chan sendResult, 1)

	deadline := time.Now().Add(cfg.CommandTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	cmd := &sendCommandCmd{
		command: Command{
			ID:        h.nextMessageID(),
			Method:    method,
			Params:    params,
			SessionID: sessionID,
		},
		reply:    reply,
		deadline: deadline,
	}

	select {
	case h.commandCh <- cmd:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-reply:
		return res.result, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func subscribe(h *handle, cfg Config, sessionID, method string) *Subscription {
	sink := make(chan Event, cfg.ChannelCapacity)
	done := make(chan struct{})

	h.commandCh <- &subscribeCmd{
		method:    method,
		sessionID: sessionID,
		sink:      sink,
		done:      done,
	}

	var closeOnce bool
	return &Subscription{
		Events: sink,
		cancel: func() {
			if closeOnce {
				return
			}
			closeOnce = true
			close(done)
		},
	}
}
