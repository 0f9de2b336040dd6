package cdp

import (
	"context"
	"encoding/json"
)

// Session is a Client Handle with a session id stamped onto every outgoing
// command and used to scope incoming events.
type Session struct {
	client    *Client
	sessionID string
}

// SessionID returns the bound CDP session id.
func (s *Session) SessionID() string {
	return s.sessionID
}

// SendCommand behaves like Client.SendCommand but stamps this session's id
// onto the outgoing frame.
func (s *Session) SendCommand(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
	return sendCommand(ctx, s.client.h, s.client.cfg, s.sessionID, method, params)
}

// Subscribe behaves like Client.Subscribe but only receives events whose
// sessionId matches this session.
func (s *Session) Subscribe(method string) *Subscription {
	return subscribe(s.client.h, s.client.cfg, s.sessionID, method)
}

// IsConnected reports the underlying transport's connection flag.
func (s *Session) IsConnected() bool {
	return s.client.IsConnected()
}

// ConnectionID returns the underlying Client's transport connection id.
func (s *Session) ConnectionID() string {
	return s.client.ConnectionID()
}
