// Package ws provides an in-process mock CDP-over-WebSocket server used by
// internal/cdp tests in place of a real browser.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

const (
	DummyCDPSessionID        = "session_id_0123456789"
	DummyCDPTargetID         = "target_id_0123456789"
	DummyCDPBrowserContextID = "browser_context_id_0123456789"
)

var (
	CDPTargetAttachedToTargetRequest = fmt.Sprintf(`
	{
		"sessionId": "%s",
		"targetInfo": {
			"targetId": "%s",
			"type": "page",
			"title": "",
			"url": "about:blank",
			"attached": true,
			"browserContextId": "%s"
		},
		"waitingForDebugger": false
	}
	`, DummyCDPSessionID, DummyCDPTargetID, DummyCDPBrowserContextID)

	CDPTargetAttachedToTargetResponse = fmt.Sprintf(`{"sessionId":"%s"}`, DummyCDPSessionID)
)

// Message is the generic CDP wire frame the mock server speaks. It
// deliberately mirrors internal/cdp's own wire type rather than importing
// it, so this package stays free of any internal/cdp -> tests/ws -> internal/cdp
// import cycle.
type Message struct {
	ID        uint64          `json:"id,omitempty"`
	Method    string          `json:"method,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *MessageError   `json:"error,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
}

// MessageError is a CDP protocol-level error object.
type MessageError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

// WSTestServer is a running mock CDP server, reachable over plain http and
// ws at URL.
type WSTestServer struct {
	Mux        *http.ServeMux
	ServerHTTP *httptest.Server
	URL        string
	Context    context.Context
	Cleanup    func()
}

// NewWSServerWithCDPHandler creates a WS test server with a custom CDP
// handler function, invoked once per inbound message.
func NewWSServerWithCDPHandler(
	t testing.TB,
	fn func(conn *websocket.Conn, msg *Message, writeCh chan Message, done chan struct{}),
	cmdsReceived *[]string,
) *WSTestServer {
	return NewWSServer(t, "/cdp", getWebsocketHandlerCDP(fn, cmdsReceived))
}

// NewWSServerWithClosureAbnormal creates a WS test server that closes the
// connection without a proper close handshake, simulating a crashed browser.
func NewWSServerWithClosureAbnormal(t testing.TB) *WSTestServer {
	return NewWSServer(t, "/closure-abnormal", getWebsocketHandlerAbnormalClosure())
}

// NewWSServer returns a fully configured and running WS test server.
func NewWSServer(t testing.TB, path string, handler http.Handler) *WSTestServer {
	t.Helper()

	mux := http.NewServeMux()
	mux.Handle(path, handler)
	mux.HandleFunc("/json/version", jsonVersionHandler)
	mux.HandleFunc("/json/list", jsonListHandler(path))

	httpSrv := httptest.NewServer(mux)
	wsURL := "ws" + strings.TrimPrefix(httpSrv.URL, "http")

	ctx, ctxCancel := context.WithCancel(context.Background())
	return &WSTestServer{
		Mux:        mux,
		ServerHTTP: httpSrv,
		URL:        wsURL + path,
		Context:    ctx,
		Cleanup: func() {
			httpSrv.Close()
			ctxCancel()
		},
	}
}

func jsonVersionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"Browser":          "mock/1.0",
		"Protocol-Version": "1.3",
		"webSocketDebuggerUrl": "ws://" + r.Host + "/cdp",
	})
}

func jsonListHandler(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]string{
			{
				"id":                   DummyCDPTargetID,
				"type":                 "page",
				"title":                "mock page",
				"url":                  "about:blank",
				"webSocketDebuggerUrl": "ws://" + r.Host + path,
			},
		})
	}
}

// CDPDefaultHandler answers Target.attachToTarget with a dummy session and
// echoes a bare empty result for everything else.
func CDPDefaultHandler(conn *websocket.Conn, msg *Message, writeCh chan Message, done chan struct{}) {
	if msg.SessionID != "" && msg.Method != "" {
		writeCh <- Message{ID: msg.ID, SessionID: msg.SessionID, Result: json.RawMessage(`{}`)}
		return
	}
	if msg.Method == "" {
		return
	}
	switch msg.Method {
	case "Target.attachToTarget":
		writeCh <- Message{
			Method: "Target.attachedToTarget",
			Params: json.RawMessage(CDPTargetAttachedToTargetRequest),
		}
		writeCh <- Message{
			ID:     msg.ID,
			Result: json.RawMessage(CDPTargetAttachedToTargetResponse),
		}
	default:
		writeCh <- Message{ID: msg.ID, Result: json.RawMessage(`{}`)}
	}
}

// CDPReadMsg reads one CDP message from conn.
func CDPReadMsg(conn *websocket.Conn) (*Message, error) {
	_, buf, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	var msg Message
	if err := json.Unmarshal(buf, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// CDPWriteMsg writes one CDP message to conn.
func CDPWriteMsg(conn *websocket.Conn, msg *Message) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	writer, err := conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return
	}
	if _, err := writer.Write(b); err != nil {
		return
	}
	_ = writer.Close()
}

func getWebsocketHandlerCDP(
	fn func(conn *websocket.Conn, msg *Message, writeCh chan Message, done chan struct{}),
	cmdsReceived *[]string,
) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		conn, err := (&websocket.Upgrader{}).Upgrade(w, req, w.Header())
		if err != nil {
			return
		}

		done := make(chan struct{})
		writeCh := make(chan Message)

		go func() {
			for {
				select {
				case <-done:
					return
				default:
				}

				msg, err := CDPReadMsg(conn)
				if err != nil {
					close(done)
					return
				}

				if msg.Method != "" && cmdsReceived != nil {
					*cmdsReceived = append(*cmdsReceived, msg.Method)
				}

				fn(conn, msg, writeCh, done)
			}
		}()

		go func() {
			for {
				select {
				case msg := <-writeCh:
					CDPWriteMsg(conn, &msg)
				case <-done:
					return
				}
			}
		}()

		<-done
	})
}

func getWebsocketHandlerAbnormalClosure() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		conn, err := (&websocket.Upgrader{}).Upgrade(w, req, w.Header())
		if err != nil {
			return
		}
		_ = conn.Close()
	})
}
