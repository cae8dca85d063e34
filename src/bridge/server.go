package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"lighthouse/src/app"
	"lighthouse/src/events"
)

// Server timeouts. Writes allow for a full vision round trip.
const (
	ReadTimeout     = 10 * time.Second
	WriteTimeout    = 90 * time.Second
	IdleTimeout     = 120 * time.Second
	shutdownTimeout = 3 * time.Second
)

type Server struct {
	addr     string
	bus      *events.Bus
	registry map[string]HandlerFunc
}

func NewServer(addr string, a *app.App) *Server {
	return &Server{addr: addr, bus: a.Bus(), registry: Registry(a)}
}

// Handler returns the HTTP routes: / (banner), /rpc and /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", sendBanner)
	mux.HandleFunc("/rpc", s.handleJSONRPC)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("bridge: listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(sctx)
	}()

	log.Printf("bridge: serving on http://%s", ln.Addr())
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Execute runs one method directly, for in-process callers.
func (s *Server) Execute(ctx context.Context, method string, params json.RawMessage) (any, error) {
	handler, exists := s.registry[method]
	if !exists {
		return nil, fmt.Errorf("method not found: %s", method)
	}
	return handler(ctx, params)
}

// validate checks a decoded request; it returns a non-zero code on failure.
func validate(req JSONRPCRequest) (int, string) {
	if req.JSONRPC != "2.0" {
		return ErrCodeInvalidRequest, "'jsonrpc' must be '2.0'"
	}
	if req.ID == nil {
		return ErrCodeInvalidRequest, "'id' field is required"
	}
	if req.Method == "" {
		return ErrCodeInvalidRequest, "'method' is required"
	}
	return 0, ""
}

// call dispatches req and returns either a result or an error triple.
func (s *Server) call(ctx context.Context, req JSONRPCRequest) (any, *rpcError) {
	handler, exists := s.registry[req.Method]
	if !exists {
		return nil, &rpcError{ErrCodeMethodNotFound, "Method not found", fmt.Sprintf("Method '%s' not found", req.Method)}
	}
	result, err := handler(ctx, req.Params)
	if err != nil {
		var pe *paramsError
		if errors.As(err, &pe) {
			return nil, &rpcError{ErrCodeInvalidParams, "Invalid params", pe.Error()}
		}
		log.Printf("bridge: %s failed: %v", req.Method, err)
		return nil, &rpcError{ErrCodeServerError, "Server error", err.Error()}
	}
	return result, nil
}

type rpcError struct {
	code    int
	message string
	data    any
}

func (e *rpcError) body() map[string]any {
	return map[string]any{"code": e.code, "message": e.message, "data": e.data}
}

func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONRPCError(w, nil, ErrCodeParseError, "Parse error", "expecting jsonrpc payload")
		return
	}
	if code, msg := validate(req); code != 0 {
		sendJSONRPCError(w, req.ID, code, "Invalid Request", msg)
		return
	}

	log.Printf("bridge: request %v %s", req.ID, req.Method)
	result, rerr := s.call(r.Context(), req)
	if rerr != nil {
		sendJSONRPCError(w, req.ID, rerr.code, rerr.message, rerr.data)
		return
	}
	sendJSONRPCResponse(w, req.ID, result)
}

func sendJSONRPCResponse(w http.ResponseWriter, id any, result any) {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func sendJSONRPCError(w http.ResponseWriter, id any, code int, message string, data any) {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Error:   (&rpcError{code, message, data}).body(),
		ID:      id,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func sendBanner(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "name": "lighthouse"})
}
