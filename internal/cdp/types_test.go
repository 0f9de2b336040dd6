package cdp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandMarshal(t *testing.T) {
	t.Parallel()

	t.Run("without params or session", func(t *testing.T) {
		t.Parallel()
		cmd := Command{ID: 1, Method: "Browser.getVersion"}
		b, err := json.Marshal(cmd)
		require.NoError(t, err)

		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(b, &m))
		assert.Equal(t, float64(1), m["id"])
		assert.Equal(t, "Browser.getVersion", m["method"])
		_, hasParams := m["params"]
		assert.False(t, hasParams)
		_, hasSession := m["sessionId"]
		assert.False(t, hasSession)
	})

	t.Run("with params", func(t *testing.T) {
		t.Parallel()
		cmd := Command{ID: 2, Method: "Page.navigate", Params: json.RawMessage(`{"url":"https://example.com"}`)}
		b, err := json.Marshal(cmd)
		require.NoError(t, err)

		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(b, &m))
		params := m["params"].(map[string]interface{})
		assert.Equal(t, "https://example.com", params["url"])
		_, hasSession := m["sessionId"]
		assert.False(t, hasSession)
	})

	t.Run("with session id", func(t *testing.T) {
		t.Parallel()
		cmd := Command{ID: 3, Method: "Runtime.evaluate", SessionID: "session-abc"}
		b, err := json.Marshal(cmd)
		require.NoError(t, err)

		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(b, &m))
		assert.Equal(t, "session-abc", m["sessionId"])
	})
}

func TestClassify(t *testing.T) {
	t.Parallel()

	t.Run("response", func(t *testing.T) {
		t.Parallel()
		resp, event, err := classify([]byte(`{"id": 1, "result": {"ok": true}}`))
		require.NoError(t, err)
		require.NotNil(t, resp)
		require.Nil(t, event)
		assert.Equal(t, uint64(1), resp.ID)
		assert.Nil(t, resp.Err)
	})

	t.Run("error response", func(t *testing.T) {
		t.Parallel()
		resp, event, err := classify([]byte(`{"id": 2, "error": {"code": -32600, "message": "Invalid request"}}`))
		require.NoError(t, err)
		require.NotNil(t, resp)
		require.Nil(t, event)
		require.NotNil(t, resp.Err)
		assert.Equal(t, int64(-32600), resp.Err.Code)
	})

	t.Run("event", func(t *testing.T) {
		t.Parallel()
		resp, event, err := classify([]byte(`{"method": "Network.requestWillBeSent", "params": {"requestId": "r1"}}`))
		require.NoError(t, err)
		require.Nil(t, resp)
		require.NotNil(t, event)
		assert.Equal(t, "Network.requestWillBeSent", event.Method)

		var params map[string]interface{}
		require.NoError(t, json.Unmarshal(event.Params, &params))
		assert.Equal(t, "r1", params["requestId"])
	})

	t.Run("session scoped event", func(t *testing.T) {
		t.Parallel()
		_, event, err := classify([]byte(`{"method": "DOM.documentUpdated", "params": {}, "sessionId": "sess-1"}`))
		require.NoError(t, err)
		require.NotNil(t, event)
		assert.Equal(t, "sess-1", event.SessionID)
	})

	t.Run("session scoped response", func(t *testing.T) {
		t.Parallel()
		resp, _, err := classify([]byte(`{"id": 5, "result": {}, "sessionId": "sess-2"}`))
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, "sess-2", resp.SessionID)
	})

	t.Run("unclassifiable returns neither", func(t *testing.T) {
		t.Parallel()
		resp, event, err := classify([]byte(`{}`))
		require.NoError(t, err)
		assert.Nil(t, resp)
		assert.Nil(t, event)
	})

	t.Run("response without result yields null", func(t *testing.T) {
		t.Parallel()
		resp, _, err := classify([]byte(`{"id": 10}`))
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, json.RawMessage("null"), resp.Result)
	})

	t.Run("event without params yields null", func(t *testing.T) {
		t.Parallel()
		_, event, err := classify([]byte(`{"method": "Page.frameNavigated"}`))
		require.NoError(t, err)
		require.NotNil(t, event)
		assert.Equal(t, json.RawMessage("null"), event.Params)
	})
}
