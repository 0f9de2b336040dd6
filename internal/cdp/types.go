package cdp

import "encoding/json"

// Command is an outgoing CDP command, client to browser.
type Command struct {
	ID        uint64          `json:"id"`
	Method    string          `json:"method"`
	Params    json.RawMessage `json:"params,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
}

// ProtocolError is the error payload a browser returns for a failed
// command.
type ProtocolError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

func (e *ProtocolError) Error() string {
	return e.Message
}

// rawMessage is the union of every field that can appear on an inbound
// WebSocket frame. Every frame is unmarshaled into this shape first, then
// classified into a Response or an Event.
type rawMessage struct {
	ID        *uint64         `json:"id"`
	Method    string          `json:"method"`
	Params    json.RawMessage `json:"params"`
	Result    json.RawMessage `json:"result"`
	Error     *ProtocolError  `json:"error"`
	SessionID string          `json:"sessionId"`
}

// Response is a parsed reply to a previously sent Command.
type Response struct {
	ID        uint64
	Result    json.RawMessage
	Err       *ProtocolError
	SessionID string
}

// Event is a parsed asynchronous notification from the browser.
type Event struct {
	Method    string
	Params    json.RawMessage
	SessionID string
}

// classify parses buf and sorts it into a Response or an Event. It returns
// a nil Response, a nil Event and a nil error if the frame carries neither
// an id nor a method and so cannot be classified as either.
func classify(buf []byte) (resp *Response, event *Event, err error) {
	var raw rawMessage
	if err := json.Unmarshal(buf, &raw); err != nil {
		return nil, nil, err
	}

	if raw.ID != nil {
		result := raw.Result
		if result == nil && raw.Error == nil {
			result = json.RawMessage("null")
		}
		return &Response{
			ID:        *raw.ID,
			Result:    result,
			Err:       raw.Error,
			SessionID: raw.SessionID,
		}, nil, nil
	}

	if raw.Method != "" {
		params := raw.Params
		if params == nil {
			params = json.RawMessage("null")
		}
		return nil, &Event{
			Method:    raw.Method,
			Params:    params,
			SessionID: raw.SessionID,
		}, nil
	}

	return nil, nil, nil
}
