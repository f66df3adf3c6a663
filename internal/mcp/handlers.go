package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sqlmcp/internal/logger"
	"sqlmcp/internal/session"
	"sqlmcp/internal/usecase"
	"sqlmcp/pkg/jsonrpc"
)

const (
	// ProtocolVersion is the latest protocol version supported
	ProtocolVersion = "2024-11-05"

	serverName    = "sqlmcp-server"
	serverVersion = "1.0.0"

	// toolTimeout bounds a single tool invocation
	toolTimeout = 30 * time.Second
)

// ToolExecutor runs tool invocations through their transaction lifecycle
type ToolExecutor interface {
	CallTool(ctx context.Context, name, sqlText string) (*usecase.CallResult, error)
}

// ResourceProvider lists and reads table-schema resources
type ResourceProvider interface {
	ListResources(ctx context.Context) ([]usecase.Resource, error)
	ReadResource(ctx context.Context, uri string) (*usecase.ResourceContents, error)
}

// MethodHandler is a function that handles a method
type MethodHandler func(*jsonrpc.Request, *session.Session) (interface{}, *jsonrpc.Error)

// Handler handles MCP requests
type Handler struct {
	executor       ToolExecutor
	resources      ResourceProvider
	methodHandlers map[string]MethodHandler
}

// NewHandler creates a new Handler
func NewHandler(executor ToolExecutor, resources ResourceProvider) *Handler {
	h := &Handler{
		executor:  executor,
		resources: resources,
	}

	h.methodHandlers = map[string]MethodHandler{
		"initialize":                h.Initialize,
		"ping":                      h.Ping,
		"tools/list":                h.ListTools,
		"tools/call":                h.ExecuteTool,
		"resources/list":            h.ListResources,
		"resources/read":            h.ReadResource,
		"notifications/initialized": h.HandleInitialized,
	}

	return h
}

// GetAllMethodHandlers returns all method handlers
func (h *Handler) GetAllMethodHandlers() map[string]MethodHandler {
	return h.methodHandlers
}

// Initialize handles the initialize request
func (h *Handler) Initialize(req *jsonrpc.Request, sess *session.Session) (interface{}, *jsonrpc.Error) {
	logger.Debug("Handling initialize request")

	params := struct {
		ProtocolVersion string                 `json:"protocolVersion"`
		Capabilities    map[string]interface{} `json:"capabilities"`
		ClientInfo      struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"clientInfo"`
	}{}

	if req.Params != nil {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			logger.Error("Failed to unmarshal initialize params: %v", err)
			return nil, jsonrpc.InvalidParamsError(err.Error())
		}
	}

	if params.ClientInfo.Name != "" {
		logger.Info("Client connected: %s v%s", params.ClientInfo.Name, params.ClientInfo.Version)
	}
	if params.Capabilities != nil {
		sess.SetCapabilities(params.Capabilities)
	}
	sess.SetInitialized(true)

	return map[string]interface{}{
		"protocolVersion": ProtocolVersion,
		"serverInfo": map[string]interface{}{
			"name":    serverName,
			"version": serverVersion,
		},
		"capabilities": map[string]interface{}{
			"tools":     map[string]interface{}{},
			"resources": map[string]interface{}{},
		},
	}, nil
}

// Ping handles the ping request
func (h *Handler) Ping(req *jsonrpc.Request, sess *session.Session) (interface{}, *jsonrpc.Error) {
	return map[string]interface{}{}, nil
}

// HandleInitialized handles the notifications/initialized notification
func (h *Handler) HandleInitialized(req *jsonrpc.Request, sess *session.Session) (interface{}, *jsonrpc.Error) {
	logger.Debug("Client finished initialization for session %s", sess.ID)
	return map[string]interface{}{}, nil
}

// ListTools handles the tools/list request. The catalog is static and
// returned verbatim.
func (h *Handler) ListTools(req *jsonrpc.Request, sess *session.Session) (interface{}, *jsonrpc.Error) {
	logger.Debug("Handling tools/list request")

	allTools := usecase.ListTools()
	toolsData := make([]map[string]interface{}, 0, len(allTools))
	for _, tool := range allTools {
		toolsData = append(toolsData, map[string]interface{}{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": tool.InputSchema,
		})
	}

	return map[string]interface{}{
		"tools": toolsData,
	}, nil
}

// ExecuteTool handles the tools/call request
func (h *Handler) ExecuteTool(req *jsonrpc.Request, sess *session.Session) (interface{}, *jsonrpc.Error) {
	params := struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	}{}

	if req.Params == nil {
		return nil, jsonrpc.InvalidParamsError("Missing tool parameters")
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		logger.Error("Failed to unmarshal tools/call params: %v", err)
		return nil, jsonrpc.InvalidParamsError(err.Error())
	}
	if params.Name == "" {
		return nil, jsonrpc.InvalidParamsError("Missing tool name")
	}

	sqlText, ok := params.Arguments["sql"].(string)
	if !ok || sqlText == "" {
		return nil, jsonrpc.InvalidParamsError("Missing or invalid 'sql' parameter")
	}

	logger.Info("Executing tool: %s", params.Name)

	ctx, cancel := context.WithTimeout(context.Background(), toolTimeout)
	defer cancel()

	result, err := h.executor.CallTool(ctx, params.Name, sqlText)
	if err != nil {
		var unknownTool *usecase.UnknownToolError
		if errors.As(err, &unknownTool) {
			return nil, jsonrpc.NewError(jsonrpc.MethodNotFoundCode, unknownTool.Error(), nil)
		}

		logger.Error("Tool execution error: %v", err)
		// Execution failures are surfaced to the caller as the operation's
		// failed result, not as a protocol error.
		return toolErrorResponse(err), nil
	}

	return map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": result.Text},
		},
		"isError": result.IsError,
	}, nil
}

// ListResources handles the resources/list request
func (h *Handler) ListResources(req *jsonrpc.Request, sess *session.Session) (interface{}, *jsonrpc.Error) {
	logger.Debug("Handling resources/list request")

	ctx, cancel := context.WithTimeout(context.Background(), toolTimeout)
	defer cancel()

	resources, err := h.resources.ListResources(ctx)
	if err != nil {
		logger.Error("Failed to list resources: %v", err)
		return nil, jsonrpc.InternalError(err.Error())
	}

	resourcesData := make([]map[string]interface{}, 0, len(resources))
	for _, r := range resources {
		resourcesData = append(resourcesData, map[string]interface{}{
			"uri":      r.URI,
			"name":     r.Name,
			"mimeType": r.MimeType,
		})
	}

	return map[string]interface{}{
		"resources": resourcesData,
	}, nil
}

// ReadResource handles the resources/read request
func (h *Handler) ReadResource(req *jsonrpc.Request, sess *session.Session) (interface{}, *jsonrpc.Error) {
	params := struct {
		URI string `json:"uri"`
	}{}

	if req.Params == nil {
		return nil, jsonrpc.InvalidParamsError("Missing resource parameters")
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		logger.Error("Failed to unmarshal resources/read params: %v", err)
		return nil, jsonrpc.InvalidParamsError(err.Error())
	}

	ctx, cancel := context.WithTimeout(context.Background(), toolTimeout)
	defer cancel()

	contents, err := h.resources.ReadResource(ctx, params.URI)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidResourceURI) {
			return nil, jsonrpc.NewError(jsonrpc.InvalidParamsCode, usecase.ErrInvalidResourceURI.Error(), nil)
		}
		logger.Error("Failed to read resource %s: %v", params.URI, err)
		return nil, jsonrpc.InternalError(err.Error())
	}

	return map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"uri":      contents.URI,
				"mimeType": contents.MimeType,
				"text":     contents.Text,
			},
		},
	}, nil
}

// toolErrorResponse formats an execution failure as an isError tool result
// so the caller sees the original error text.
func toolErrorResponse(err error) map[string]interface{} {
	return map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": fmt.Sprintf("Error: %v", err)},
		},
		"isError": true,
	}
}
