package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/ironsheep/spore-measure-mcp/internal/calibration"
	"github.com/ironsheep/spore-measure-mcp/internal/config"
	"github.com/ironsheep/spore-measure-mcp/internal/geometry"
	"github.com/ironsheep/spore-measure-mcp/internal/imaging"
	"github.com/ironsheep/spore-measure-mcp/internal/session"
	"github.com/ironsheep/spore-measure-mcp/internal/store"
	"github.com/ironsheep/spore-measure-mcp/internal/watcher"
)

// Server handles MCP protocol communication
type Server struct {
	cfg      *config.Config
	cache    *imaging.ImageCache
	store    store.Store
	registry *calibration.Registry
	view     *geometry.View
	session  *session.Session
	prefs    store.Preferences
	watcher  *watcher.FileWatcher
	debug    *log.Logger

	imagePath string
	events    []session.Event

	outMu sync.Mutex
	enc   *json.Encoder
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// Notification methods sent by the server.
const (
	NotifySessionEvent = "notifications/session_event"
	NotifyImageChanged = "notifications/image_changed"
)

// ServerVersion is reported during initialize. main overrides it from
// ldflags.
var ServerVersion = "0.1.0"

// New opens the configured store and creates a server around it.
func New(cfg *config.Config) (*Server, error) {
	st, err := store.Open(cfg.GetStoreBackend(), cfg.GetDataDir())
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return NewWithStore(cfg, st), nil
}

// NewWithStore creates a server over an already opened store. The server
// owns st and closes it in Close.
func NewWithStore(cfg *config.Config, st store.Store) *Server {
	if cfg == nil {
		cfg = config.Empty()
	}
	s := &Server{
		cfg:   cfg,
		cache: imaging.NewImageCache(),
		store: st,
		view:  geometry.NewView(),
	}
	if cfg.GetLogLevel() == "debug" || os.Getenv("SPORE_MCP_LOG_LEVEL") == "debug" {
		s.debug = log.New(os.Stderr, "[debug] ", log.Ldate|log.Ltime|log.Lshortfile)
	}

	reg, err := calibration.NewRegistry(st)
	if err != nil {
		log.Printf("Failed to load calibrations, starting empty: %v", err)
	}
	s.registry = reg

	prefs, err := store.LoadPreferences(st)
	if err != nil {
		log.Printf("Failed to load preferences, using defaults: %v", err)
	}
	s.prefs = prefs

	s.session = session.New(
		session.WithMapper(s.view),
		session.WithRegistry(reg),
		session.WithLogger(s.debug),
	)
	s.session.On(func(e session.Event) {
		s.events = append(s.events, e)
	})

	if cfg.GetWatchImages() {
		w, err := watcher.NewFileWatcher(cfg.GetWatchDebounce(), log.Default())
		if err != nil {
			log.Printf("Image watching disabled: %v", err)
		} else {
			s.watcher = w
			w.Start()
		}
	}
	return s
}

// Close stops the watcher and closes the store.
func (s *Server) Close() error {
	var errs []error
	if s.watcher != nil {
		errs = append(errs, s.watcher.Close())
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	return errors.Join(errs...)
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve processes newline-delimited JSON-RPC requests from r until EOF,
// writing responses and notifications to w.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	s.outMu.Lock()
	s.enc = json.NewEncoder(w)
	s.outMu.Unlock()

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("Failed to parse request: %v", err)
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			s.send(resp)
		}
		s.flushEvents()
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// send writes one message. The watcher goroutine also sends, so writes are
// serialized.
func (s *Server) send(v interface{}) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	if s.enc == nil {
		return
	}
	if err := s.enc.Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// flushEvents sends the session events raised while handling the last
// request, after its response.
func (s *Server) flushEvents() {
	events := s.events
	s.events = nil
	for _, e := range events {
		s.send(&MCPNotification{
			JSONRPC: "2.0",
			Method:  NotifySessionEvent,
			Params:  e,
		})
	}
}

// watchImage moves the file watch to path. Rewriting the file drops the
// cached decode and tells the client.
func (s *Server) watchImage(path string) {
	if s.watcher == nil {
		return
	}
	if s.imagePath != "" && s.imagePath != path {
		if err := s.watcher.Unwatch(s.imagePath); err != nil {
			log.Printf("Failed to unwatch %s: %v", s.imagePath, err)
		}
	}
	err := s.watcher.Watch(path, func(changed string) {
		s.cache.Evict(path)
		s.debugf("image changed on disk: %s", changed)
		s.send(&MCPNotification{
			JSONRPC: "2.0",
			Method:  NotifyImageChanged,
			Params:  map[string]interface{}{"path": path},
		})
	})
	if err != nil {
		log.Printf("Failed to watch %s: %v", path, err)
	}
}

func (s *Server) debugf(format string, args ...interface{}) {
	if s.debug != nil {
		s.debug.Printf(format, args...)
	}
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "spore-measure-mcp",
				"version": ServerVersion,
			},
		},
	}
}
