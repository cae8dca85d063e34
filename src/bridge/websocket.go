package bridge

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"lighthouse/src/events"
)

type wsConnection struct {
	conn    *websocket.Conn
	window  string
	writeMu sync.Mutex
}

// wsMessage is either a JSON-RPC request or an event emitted by the page.
type wsMessage struct {
	JSONRPCRequest
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     isSameOrigin,
}

func isSameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	return originURL.Host == r.Host
}

// handleWebSocket serves one page. ?window=<id> binds the connection to a
// window instance so it receives that window's events; without it the page
// gets a fresh id and only sees broadcasts.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("bridge: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	windowID := r.URL.Query().Get("window")
	if windowID == "" {
		windowID = uuid.NewString()
	}
	wsConn := &wsConnection{conn: conn, window: windowID}

	unsubscribe := s.bus.Subscribe(windowID, "", func(ev events.Event) {
		if events.Inbound(ev.Name) {
			return
		}
		if err := wsConn.sendJSON(ev); err != nil {
			log.Printf("bridge: push %s to %s failed: %v", ev.Name, windowID, err)
		}
	})
	defer unsubscribe()

	_ = wsConn.sendJSON(map[string]any{"event": "connected", "window": windowID})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			// connection closed or error
			log.Printf("bridge: websocket %s closed: %v", windowID, err)
			return
		}

		if messageType != websocket.TextMessage {
			wsConn.sendError(nil, ErrCodeInvalidRequest, "Invalid Request", "only text messages accepted for requests")
			continue
		}

		s.handleWSMessage(ctx, wsConn, message)
	}
}

func (s *Server) handleWSMessage(ctx context.Context, wsConn *wsConnection, message []byte) {
	var msg wsMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		wsConn.sendError(nil, ErrCodeParseError, "Parse error", "expecting jsonrpc payload or event")
		return
	}

	if msg.Event != "" && msg.JSONRPC == "" {
		var payload any
		if len(msg.Payload) > 0 {
			_ = json.Unmarshal(msg.Payload, &payload)
		}
		s.bus.Emit(events.Event{Name: msg.Event, Window: wsConn.window, Payload: payload})
		return
	}

	req := msg.JSONRPCRequest
	if code, text := validate(req); code != 0 {
		wsConn.sendError(req.ID, code, "Invalid Request", text)
		return
	}

	// Commands may block on vision calls; keep reading so events still flow.
	go func() {
		result, rerr := s.call(ctx, req)
		if rerr != nil {
			wsConn.sendError(req.ID, rerr.code, rerr.message, rerr.data)
			return
		}
		wsConn.sendResponse(req.ID, result)
	}()
}

func (wsc *wsConnection) sendResponse(id any, result any) error {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}
	return wsc.sendJSON(response)
}

func (wsc *wsConnection) sendError(id any, code int, message string, data any) error {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Error:   (&rpcError{code, message, data}).body(),
		ID:      id,
	}
	return wsc.sendJSON(response)
}

func (wsc *wsConnection) sendJSON(v any) error {
	wsc.writeMu.Lock()
	defer wsc.writeMu.Unlock()
	return wsc.conn.WriteJSON(v)
}
