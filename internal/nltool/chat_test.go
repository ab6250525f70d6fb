package nltool

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desarrollo032/airtable-mcp/internal/nlp"
)

func dialChat(t *testing.T, tool *Tool) *websocket.Conn {
	t.Helper()
	r := chi.NewRouter()
	tool.RegisterChat(r)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/nlp"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestChatConversation(t *testing.T) {
	exec := &fakeExecutor{payload: Payload{"records": []any{"r1"}}}
	tool := newTool(t, "appDefault", exec)
	conn := dialChat(t, tool)

	require.NoError(t, conn.WriteJSON(QueryRequest{Query: "listar registros de Tasks", SessionID: "chat"}))
	var first chatMessage
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "response", first.Type)
	assert.Equal(t, "chat", first.SessionID)
	require.NotNil(t, first.Response)
	assert.True(t, first.Response.Success)

	// The session sticks to the connection, so the reference resolves.
	require.NoError(t, conn.WriteJSON(QueryRequest{Query: "mostrar registros de esa tabla"}))
	var second chatMessage
	require.NoError(t, conn.ReadJSON(&second))
	require.NotNil(t, second.Response)
	assert.Equal(t, nlp.IntentListRecords, second.Response.Intent)
	assert.True(t, second.Response.Success, second.Response.Message)
	assert.Equal(t, "chat", second.SessionID)

	require.Len(t, exec.ops(), 2)
	assert.Equal(t, "Tasks", exec.callAt(1).args[1])
}

func TestChatErrors(t *testing.T) {
	conn := dialChat(t, newTool(t, "appDefault", &fakeExecutor{}))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	var msg chatMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, "invalid message format", msg.Error)

	require.NoError(t, conn.WriteJSON(QueryRequest{SessionID: "x"}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, "query is required", msg.Error)
	assert.Equal(t, "x", msg.SessionID)
}
