package transport

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"sqlmcp/internal/logger"
	"sqlmcp/internal/mcp"
	"sqlmcp/internal/session"
	"sqlmcp/pkg/jsonrpc"
)

// StdioTransport implements the STDIO transport for the MCP server.
// Requests arrive as newline-delimited JSON on stdin; responses leave as
// newline-delimited JSON on stdout. Logs never touch stdout.
type StdioTransport struct {
	sessionManager *session.Manager
	methodHandlers map[string]mcp.MethodHandler
	mu             sync.RWMutex
	running        bool
	done           chan struct{}
}

// NewStdioTransport creates a new STDIO transport
func NewStdioTransport(sessionManager *session.Manager) *StdioTransport {
	return &StdioTransport{
		sessionManager: sessionManager,
		methodHandlers: make(map[string]mcp.MethodHandler),
		done:           make(chan struct{}),
	}
}

// RegisterMethodHandler registers a method handler
func (t *StdioTransport) RegisterMethodHandler(method string, handler mcp.MethodHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.methodHandlers[method] = handler
}

// GetMethodHandler gets a method handler by name
func (t *StdioTransport) GetMethodHandler(method string) (mcp.MethodHandler, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	handler, ok := t.methodHandlers[method]
	return handler, ok
}

// Done returns a channel that is closed when the transport stops
func (t *StdioTransport) Done() <-chan struct{} {
	return t.done
}

// Start starts the STDIO transport
func (t *StdioTransport) Start() error {
	if t.running {
		return fmt.Errorf("STDIO transport already running")
	}

	// Create a session for the STDIO client
	sess := t.sessionManager.CreateSession()
	logger.Info("Created new STDIO session %s", sess.ID)

	// Responses are written to stdout as single lines and flushed
	// immediately so the client never waits on buffering.
	sess.EventCallback = func(event string, data []byte) error {
		if event == "message" {
			if _, writeErr := fmt.Fprintf(os.Stdout, "%s\n", string(data)); writeErr != nil {
				logger.Error("Error writing to stdout: %v", writeErr)
				return writeErr
			}
			if syncErr := os.Stdout.Sync(); syncErr != nil {
				logger.Error("Error syncing stdout: %v", syncErr)
				return syncErr
			}
		}
		return nil
	}

	sess.Connected = true
	t.running = true

	go t.readStdin(sess)

	return nil
}

// Stop stops the STDIO transport
func (t *StdioTransport) Stop() {
	if !t.running {
		return
	}

	t.running = false
	close(t.done)
}

// readStdin reads JSON-RPC requests from stdin and processes them
func (t *StdioTransport) readStdin(sess *session.Session) {
	reader := bufio.NewReader(os.Stdin)

	for t.running {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				logger.Info("Received EOF on stdin, shutting down")
				t.Stop()
				return
			}
			logger.Error("Error reading from stdin: %v", err)
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var req jsonrpc.Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			logger.Error("Failed to parse JSON-RPC request: %v", err)
			t.sendErrorResponse(sess, nil, &jsonrpc.Error{
				Code:    jsonrpc.ParseErrorCode,
				Message: "Invalid JSON: " + err.Error(),
			})
			continue
		}

		go t.processRequest(sess, &req)
	}
}

// processRequest processes a JSON-RPC request
func (t *StdioTransport) processRequest(sess *session.Session, req *jsonrpc.Request) {
	logger.Debug("Processing request: method=%s, id=%v", req.Method, req.ID)

	handler, ok := t.GetMethodHandler(req.Method)
	if !ok {
		logger.Error("Method not found: %s", req.Method)
		if req.IsNotification() {
			return
		}
		t.sendErrorResponse(sess, req.ID, &jsonrpc.Error{
			Code:    jsonrpc.MethodNotFoundCode,
			Message: fmt.Sprintf("Method not found: %s", req.Method),
		})
		return
	}

	result, jsonRPCErr := handler(req, sess)

	// Notifications never get a response, success or failure
	if req.IsNotification() {
		if jsonRPCErr != nil {
			logger.Debug("Notification handler error: %v", jsonRPCErr)
		}
		return
	}

	if jsonRPCErr != nil {
		logger.Debug("Method handler error: %v", jsonRPCErr)
		t.sendErrorResponse(sess, req.ID, jsonRPCErr)
		return
	}

	response := jsonrpc.NewResponse(req, result, nil)
	responseJSON, err := json.Marshal(response)
	if err != nil {
		logger.Error("Failed to marshal response: %v", err)
		t.sendErrorResponse(sess, req.ID, &jsonrpc.Error{
			Code:    jsonrpc.InternalErrorCode,
			Message: "Failed to marshal response",
		})
		return
	}

	logger.Debug("Sending response: %s", string(responseJSON))

	if err := sess.SendEvent("message", responseJSON); err != nil {
		logger.Error("Failed to send response: %v", err)
	}
}

// sendErrorResponse sends a JSON-RPC error response
func (t *StdioTransport) sendErrorResponse(sess *session.Session, id interface{}, rpcErr *jsonrpc.Error) {
	response := jsonrpc.Response{
		JSONRPC: jsonrpc.Version,
		ID:      id,
		Error:   rpcErr,
	}

	responseJSON, err := json.Marshal(response)
	if err != nil {
		logger.Error("Failed to marshal error response: %v", err)
		return
	}

	logger.Debug("Sending error response: %s", string(responseJSON))

	if err := sess.SendEvent("message", responseJSON); err != nil {
		logger.Error("Failed to send error response: %v", err)
	}
}
