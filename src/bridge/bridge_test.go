package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lighthouse/src/app"
	"lighthouse/src/events"
	"lighthouse/src/focusstate"
	"lighthouse/src/screenshot"
	"lighthouse/src/window"
	"lighthouse/src/window/windowtest"
)

type copyRecorder struct{ got []string }

func (c *copyRecorder) copy(s string) error {
	c.got = append(c.got, s)
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *app.App, *windowtest.Host, *copyRecorder) {
	t.Helper()
	bus := events.NewBus()
	host := &windowtest.Host{Bus: bus}
	clip := &copyRecorder{}
	a := app.New(app.Options{
		Host:         host,
		Bus:          bus,
		Store:        focusstate.NewStore(t.TempDir()),
		Capture:      func(screenshot.Options) (string, error) { return "data:image/png;base64,AAAA", nil },
		ScreenSize:   func() (int, int, error) { return 1000, 800, nil },
		CopyText:     clip.copy,
		ReadyTimeout: 100 * time.Millisecond,
		Fade:         window.Strategy{Mode: window.Instant},
	})
	srv := httptest.NewServer(NewServer("127.0.0.1:0", a).Handler())
	t.Cleanup(srv.Close)
	return srv, a, host, clip
}

func rpc(t *testing.T, srv *httptest.Server, body string) map[string]any {
	t.Helper()
	resp, err := http.Post(srv.URL+"/rpc", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func errorCode(t *testing.T, resp map[string]any) int {
	t.Helper()
	e, ok := resp["error"].(map[string]any)
	require.True(t, ok, "expected error in %v", resp)
	return int(e["code"].(float64))
}

func TestRPCValidation(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	assert.Equal(t, ErrCodeParseError, errorCode(t, rpc(t, srv, `{not json`)))
	assert.Equal(t, ErrCodeInvalidRequest, errorCode(t, rpc(t, srv, `{"jsonrpc":"1.0","id":1,"method":"x"}`)))
	assert.Equal(t, ErrCodeInvalidRequest, errorCode(t, rpc(t, srv, `{"jsonrpc":"2.0","method":"x"}`)))
	assert.Equal(t, ErrCodeInvalidRequest, errorCode(t, rpc(t, srv, `{"jsonrpc":"2.0","id":1}`)))
	assert.Equal(t, ErrCodeMethodNotFound, errorCode(t, rpc(t, srv, `{"jsonrpc":"2.0","id":1,"method":"nope"}`)))
	assert.Equal(t, ErrCodeInvalidParams, errorCode(t, rpc(t, srv, `{"jsonrpc":"2.0","id":1,"method":"copy_text"}`)))
}

func TestRPCMethodNotAllowed(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/rpc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRPCTakeScreenshot(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	out := rpc(t, srv, `{"jsonrpc":"2.0","id":7,"method":"take_screenshot"}`)
	assert.Equal(t, "data:image/png;base64,AAAA", out["result"])
	assert.Equal(t, float64(7), out["id"])
}

func TestRPCUpdateOverlayWithoutOverlay(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	out := rpc(t, srv, `{"jsonrpc":"2.0","id":1,"method":"update_screen_overlay_data","params":{"points":[],"boxes":[]}}`)
	assert.Equal(t, ErrCodeServerError, errorCode(t, out))
	assert.Equal(t, "No overlay window exists. Use open_screen_overlay first.", out["error"].(map[string]any)["data"])
}

func TestRPCOpenOverlay(t *testing.T) {
	srv, a, host, _ := newTestServer(t)
	out := rpc(t, srv, `{"jsonrpc":"2.0","id":1,"method":"open_screen_overlay","params":{"points":[{"x":0.5,"y":0.5}],"boxes":[{"xMin":0,"yMin":0,"xMax":1,"yMax":1}],"caption":"here"}}`)
	assert.Equal(t, "ok", out["result"].(map[string]any)["status"])

	_, ok := a.Windows().Get(window.LabelOverlay)
	require.True(t, ok)

	w := host.Windows()[0]
	assert.Eventually(t, func() bool { return len(w.Received()) == 1 }, time.Second, 10*time.Millisecond)
	p := w.Received()[0].Payload.(app.OverlayPayload)
	assert.Equal(t, "here", *p.Caption)
	assert.Equal(t, 1.0, p.Boxes[0].XMax)
}

func TestRPCFocusedWindowRoundTrip(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	out := rpc(t, srv, `{"jsonrpc":"2.0","id":1,"method":"get_focused_window"}`)
	v, present := out["result"]
	assert.True(t, present)
	assert.Nil(t, v)

	rpc(t, srv, `{"jsonrpc":"2.0","id":2,"method":"set_focused_window","params":{"windowInfo":{"owner_name":"Safari","window_name":"Docs","window_id":812001,"process_id":812}}}`)
	out = rpc(t, srv, `{"jsonrpc":"2.0","id":3,"method":"get_focused_window"}`)
	assert.Equal(t, "Safari", out["result"].(map[string]any)["owner_name"])
}

func TestRPCCopyText(t *testing.T) {
	srv, _, _, clip := newTestServer(t)
	rpc(t, srv, `{"jsonrpc":"2.0","id":1,"method":"copy_text","params":{"text":"hello"}}`)
	assert.Equal(t, []string{"hello"}, clip.got)
}

func TestRegistryCoversCommands(t *testing.T) {
	reg := Registry(app.New(app.Options{Host: &windowtest.Host{}}))
	for _, m := range []string{
		"take_screenshot", "open_screen_overlay", "update_screen_overlay_data", "close_screen_overlay",
		"open_fullscreen_viewer", "open_settings_window", "open_skill_graph_window", "get_skills_data",
		"get_available_windows", "arrange_windows", "start_focus_selection_mode", "stop_focus_selection_mode",
		"get_focus_selection_mode", "get_focused_window", "set_focused_window", "show_main_window",
		"moondream_query", "moondream_point", "moondream_detect", "locate", "copy_text",
	} {
		assert.Contains(t, reg, m)
	}
}

func dial(t *testing.T, srv *httptest.Server, window string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	if window != "" {
		u += "?window=" + window
	}
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var hello map[string]any
	require.NoError(t, conn.ReadJSON(&hello))
	require.Equal(t, "connected", hello["event"])
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(map[string]any) bool) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg map[string]any
		require.NoError(t, conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func TestWebSocketSelectionBroadcast(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	caller := dial(t, srv, "")
	listener := dial(t, srv, "panel-1")

	require.NoError(t, caller.WriteJSON(map[string]any{"jsonrpc": "2.0", "id": 1, "method": "start_focus_selection_mode"}))

	resp := readUntil(t, caller, func(m map[string]any) bool { return m["id"] != nil })
	assert.Equal(t, "ok", resp["result"].(map[string]any)["status"])

	ev := readUntil(t, listener, func(m map[string]any) bool { return m["event"] == events.SelectionModeChanged })
	assert.Equal(t, true, ev["payload"])
}

func TestWebSocketReadyEventDrivesHandshake(t *testing.T) {
	srv, a, _, _ := newTestServer(t)
	bus := a.Bus()

	// A page hosting window "ov-1" reports ready; the bus must see it tagged
	// with the connection's window id.
	got := make(chan events.Event, 1)
	bus.Subscribe("ov-1", events.OverlayReady, func(ev events.Event) { got <- ev })

	page := dial(t, srv, "ov-1")
	require.NoError(t, page.WriteJSON(map[string]any{"event": events.OverlayReady, "payload": map[string]any{}}))

	select {
	case ev := <-got:
		assert.Equal(t, "ov-1", ev.Window)
	case <-time.After(2 * time.Second):
		t.Fatal("ready event not forwarded")
	}

	bus.Emit(events.Event{Name: events.OverlayData, Window: "ov-1", Payload: map[string]any{"points": []any{}}})
	msg := readUntil(t, page, func(m map[string]any) bool { return m["event"] == events.OverlayData })
	assert.Equal(t, "ov-1", msg["window"])
}

func TestServeStopsOnCancel(t *testing.T) {
	bus := events.NewBus()
	a := app.New(app.Options{Host: &windowtest.Host{Bus: bus}, Bus: bus})
	s := NewServer("127.0.0.1:0", a)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
