package api

import (
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"menuopt/internal/engine"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialChat(t *testing.T, api *MenuAPI, header http.Header) *websocket.Conn {
	t.Helper()
	return dialChatURL(t, api, "/ws", header)
}

func dialChatURL(t *testing.T, api *MenuAPI, path string, header http.Header) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(api.Router)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, frame ClientFrame) ServerFrame {
	t.Helper()
	require.NoError(t, conn.WriteJSON(frame))
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var resp ServerFrame
	require.NoError(t, conn.ReadJSON(&resp))
	return resp
}

func TestWebSocketAskAndExport(t *testing.T) {
	conn := dialChat(t, newTestAPI(t, testMenu(), ""), nil)

	first := roundTrip(t, conn, ClientFrame{Type: FrameAsk, Text: "Which dish is most wasted?"})
	assert.Equal(t, FrameReply, first.Type)
	assert.Equal(t, engine.RuleWaste, first.Rule)
	assert.Equal(t, "The most wasted ingredient is in **Paneer Tikka** using **paneer, spice** costing ₹220.", first.Reply)
	assert.NotEmpty(t, first.Session)

	second := roundTrip(t, conn, ClientFrame{Type: FrameAsk, Text: "hi"})
	assert.Equal(t, engine.HelpText, second.Reply)
	assert.Equal(t, first.Session, second.Session)

	exported := roundTrip(t, conn, ClientFrame{Type: FrameExport})
	require.Equal(t, FrameExport, exported.Type)

	records, err := csv.NewReader(strings.NewReader(exported.Transcript)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, []string{"Turn", "Speaker", "Message", "Time"}, records[0])
	assert.Equal(t, "user", records[1][1])
	assert.Equal(t, "Which dish is most wasted?", records[1][2])
	assert.Equal(t, "assistant", records[2][1])
	assert.Equal(t, "hi", records[3][2])
	assert.Equal(t, engine.HelpText, records[4][2])
}

func TestWebSocketSessionsAreIndependent(t *testing.T) {
	api := newTestAPI(t, testMenu(), "")
	a := dialChat(t, api, nil)
	b := dialChat(t, api, nil)

	first := roundTrip(t, a, ClientFrame{Type: FrameAsk, Text: "suggest something"})
	other := roundTrip(t, b, ClientFrame{Type: FrameExport})

	assert.NotEqual(t, first.Session, other.Session)
	assert.Equal(t, "Turn,Speaker,Message,Time\n", other.Transcript)
}

func TestWebSocketErrors(t *testing.T) {
	conn := dialChat(t, newTestAPI(t, testMenu(), ""), nil)

	tests := []struct {
		name  string
		frame ClientFrame
	}{
		{"empty question", ClientFrame{Type: FrameAsk, Text: " "}},
		{"unknown type", ClientFrame{Type: "dance"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := roundTrip(t, conn, tt.frame)
			assert.Equal(t, FrameError, resp.Type)
			assert.NotEmpty(t, resp.Error)
		})
	}

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{broken")))
	var resp ServerFrame
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, FrameError, resp.Type)
}

func TestWebSocketWithToken(t *testing.T) {
	api := newTestAPI(t, testMenu(), "kitchen-secret")
	token, err := IssueToken("kitchen-secret", "manager")
	require.NoError(t, err)

	conn := dialChat(t, api, http.Header{"Authorization": []string{"Bearer " + token}})

	resp := roundTrip(t, conn, ClientFrame{Type: FrameAsk, Text: "give me high margin dishes"})
	assert.Equal(t, "High margin dishes are: Salad, Paneer Tikka", resp.Reply)
}

func TestWebSocketWithQueryToken(t *testing.T) {
	api := newTestAPI(t, testMenu(), "kitchen-secret")
	token, err := IssueToken("kitchen-secret", "browser")
	require.NoError(t, err)

	conn := dialChatURL(t, api, "/ws?"+TokenQueryParam+"="+token, nil)

	resp := roundTrip(t, conn, ClientFrame{Type: FrameAsk, Text: "what should I remove?"})
	assert.Equal(t, "You can consider removing: Soup, Paneer Tikka", resp.Reply)
}
