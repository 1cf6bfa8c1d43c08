package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/richard-senior/matchpredict/internal/logger"
	"github.com/richard-senior/matchpredict/pkg/protocol"
	"github.com/richard-senior/matchpredict/pkg/transport"
)

const (
	ServerName    = "matchpredict"
	ServerVersion = "1.0.0"
)

// HandlerFunc handles one method or tool call
type HandlerFunc = func(params any) (any, error)

// ResourceReader produces a resource's current text.
type ResourceReader = func() (string, error)

// PromptRenderer fills a prompt's template from the client's arguments.
type PromptRenderer = func(args map[string]string) (*protocol.GetPromptResult, error)

// Server represents an MCP server
type Server struct {
	transport transport.Transport

	mu       sync.Mutex
	handlers map[string]HandlerFunc
	tools    []protocol.Tool
	toolFns  map[string]HandlerFunc

	resources []protocol.Resource
	readers   map[string]ResourceReader
	prompts   []protocol.Prompt
	renderers map[string]PromptRenderer
}

// NewServer creates a server with the protocol methods registered and no tools.
func NewServer(t transport.Transport) *Server {
	s := &Server{
		transport: t,
		handlers:  make(map[string]HandlerFunc),
		toolFns:   make(map[string]HandlerFunc),
		readers:   make(map[string]ResourceReader),
		renderers: make(map[string]PromptRenderer),
	}
	s.handlers[string(protocol.MethodInitialize)] = s.handleInitialize
	s.handlers[string(protocol.MethodPing)] = s.handlePing
	s.handlers[string(protocol.MethodToolsList)] = s.handleToolsList
	s.handlers[string(protocol.MethodToolsCall)] = s.handleToolsCall
	s.handlers[string(protocol.MethodResourcesList)] = s.handleResourcesList
	s.handlers[string(protocol.MethodResourcesRead)] = s.handleResourcesRead
	s.handlers[string(protocol.MethodPromptsList)] = s.handlePromptsList
	s.handlers[string(protocol.MethodPromptsGet)] = s.handlePromptsGet
	return s
}

// RegisterTool registers a tool with the server
func (s *Server) RegisterTool(tool protocol.Tool, handler HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, tool)
	s.toolFns[tool.Name] = handler
	logger.Info("Registered tool:", tool.Name)
}

// RegisterResource exposes a read-only document under resource.URI
func (s *Server) RegisterResource(resource protocol.Resource, reader ResourceReader) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resources = append(s.resources, resource)
	s.readers[resource.URI] = reader
	logger.Info("Registered resource:", resource.URI)
}

// RegisterPrompt registers a prompt with the server
func (s *Server) RegisterPrompt(prompt protocol.Prompt, renderer PromptRenderer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts = append(s.prompts, prompt)
	s.renderers[prompt.Name] = renderer
	logger.Info("Registered prompt:", prompt.Name)
}

// GetTools returns the list of registered tools
func (s *Server) GetTools() []protocol.Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.Tool(nil), s.tools...)
}

// Start processes requests until the input closes or ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	logger.Info("Starting MCP server")

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.ProcessRequests()
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, io.EOF) {
			logger.Info("Client closed the connection")
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("MCP server stopping:", ctx.Err())
		return nil
	}
}

// ProcessRequests continuously processes incoming requests
func (s *Server) ProcessRequests() error {
	for {
		req, err := s.transport.ReadRequest()
		if err != nil {
			if !transport.IsRecoverable(err) {
				return err
			}
			var rpcErr *protocol.JsonRpcError
			errors.As(err, &rpcErr)
			logger.Warn("Bad request:", rpcErr.Message)
			if err := s.transport.WriteResponse(protocol.NewJsonRpcErrorResponse(rpcErr.Code, rpcErr.Message, nil, nil)); err != nil {
				return err
			}
			continue
		}

		// nil means no response is required
		resp := s.handleRequest(req)
		if resp == nil {
			continue
		}
		if err := s.transport.WriteResponse(resp); err != nil {
			return err
		}
	}
}

// handleRequest processes a request and returns a response
func (s *Server) handleRequest(req *protocol.JsonRpcRequest) *protocol.JsonRpcResponse {
	logger.Info(">> ", req.Method)
	logger.Debug("Request:", req.String())

	if strings.HasPrefix(req.Method, "notifications/") || req.Method == string(protocol.MethodInitialized) {
		logger.Debug("Received notification:", req.Method)
		return nil
	}

	handler := s.handlers[req.Method]
	if handler == nil {
		if req.IsNotification() {
			return nil
		}
		return protocol.NewJsonRpcErrorResponse(protocol.ErrMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), nil, req.ID)
	}

	result, err := handler(req.Params)
	if req.IsNotification() {
		return nil
	}
	if err != nil {
		var rpcErr *protocol.JsonRpcError
		if !errors.As(err, &rpcErr) {
			rpcErr = &protocol.JsonRpcError{Code: protocol.ErrServer, Message: err.Error()}
		}
		return protocol.NewJsonRpcErrorResponse(rpcErr.Code, rpcErr.Message, rpcErr.Data, req.ID)
	}

	resp, err := protocol.NewJsonRpcResponse(result, req.ID)
	if err != nil {
		return protocol.NewJsonRpcErrorResponse(protocol.ErrInternal, "Failed to marshal result: "+err.Error(), nil, req.ID)
	}
	logger.Debug("Response:", resp.String())
	return resp
}

func (s *Server) handlePing(params any) (any, error) {
	return struct{}{}, nil
}

// handleToolsList handles the tools/list method
func (s *Server) handleToolsList(params any) (any, error) {
	return protocol.ToolsResponse{Tools: s.GetTools()}, nil
}

func rawParams(params any) json.RawMessage {
	if raw, ok := params.(json.RawMessage); ok {
		return raw
	}
	return nil
}

// handleInitialize echoes the client's protocol version and advertises tools.
func (s *Server) handleInitialize(params any) (any, error) {
	version := protocol.DefaultProtocolVersion

	var init struct {
		ProtocolVersion string `json:"protocolVersion"`
		ClientInfo      struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"clientInfo"`
	}
	if raw := rawParams(params); len(raw) > 0 {
		if err := json.Unmarshal(raw, &init); err != nil {
			return nil, &protocol.JsonRpcError{Code: protocol.ErrInvalidParams, Message: "invalid initialize parameters: " + err.Error()}
		}
		if init.ProtocolVersion != "" {
			version = init.ProtocolVersion
		}
	}
	logger.Info("Initialize from", init.ClientInfo.Name, init.ClientInfo.Version, "protocol", version)

	type serverInfo struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	return struct {
		ProtocolVersion string         `json:"protocolVersion"`
		Capabilities    map[string]any `json:"capabilities"`
		ServerInfo      serverInfo     `json:"serverInfo"`
	}{
		ProtocolVersion: version,
		Capabilities: map[string]any{
			"tools": map[string]any{"listChanged": false},
		},
		ServerInfo: serverInfo{Name: ServerName, Version: ServerVersion},
	}, nil
}

// handleToolsCall runs a tool. Tool failures come back as an error result
// so the client can show them; only malformed calls are JSON-RPC errors.
func (s *Server) handleToolsCall(params any) (any, error) {
	var call struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal(rawParams(params), &call); err != nil {
		return nil, &protocol.JsonRpcError{Code: protocol.ErrInvalidParams, Message: "invalid tools/call parameters: " + err.Error()}
	}
	logger.Info("Tool call requested for:", call.Name)

	s.mu.Lock()
	handler := s.toolFns[call.Name]
	s.mu.Unlock()
	if handler == nil {
		return nil, &protocol.JsonRpcError{Code: protocol.ErrInvalidParams, Message: "tool not found: " + call.Name}
	}
	if call.Arguments == nil {
		call.Arguments = map[string]any{}
	}

	result, err := handler(call.Arguments)
	if err != nil {
		logger.Warn("Tool failed:", call.Name, err)
		return protocol.ErrorResult(err), nil
	}
	if tr, ok := result.(*protocol.ToolResult); ok {
		return tr, nil
	}
	text, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return protocol.TextResult(string(text), result), nil
}

func (s *Server) handleResourcesList(params any) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return protocol.ResourcesResponse{Resources: append([]protocol.Resource{}, s.resources...)}, nil
}

// handleResourcesRead returns the current text of one resource
func (s *Server) handleResourcesRead(params any) (any, error) {
	var read struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(rawParams(params), &read); err != nil || read.URI == "" {
		return nil, &protocol.JsonRpcError{Code: protocol.ErrInvalidParams, Message: "resources/read needs a uri"}
	}

	s.mu.Lock()
	reader := s.readers[read.URI]
	var mime string
	for _, r := range s.resources {
		if r.URI == read.URI {
			mime = r.MimeType
		}
	}
	s.mu.Unlock()
	if reader == nil {
		return nil, &protocol.JsonRpcError{Code: protocol.ErrInvalidParams, Message: "resource not found: " + read.URI}
	}

	text, err := reader()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", read.URI, err)
	}
	return protocol.ReadResourceResult{
		Contents: []protocol.ResourceContents{{URI: read.URI, MimeType: mime, Text: text}},
	}, nil
}

// handlePromptsList lists prompts without their templates
func (s *Server) handlePromptsList(params any) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prompts := make([]protocol.Prompt, 0, len(s.prompts))
	for _, p := range s.prompts {
		p.Template = ""
		prompts = append(prompts, p)
	}
	return protocol.PromptsResponse{Prompts: prompts}, nil
}

func (s *Server) handlePromptsGet(params any) (any, error) {
	var get struct {
		Name      string            `json:"name"`
		Arguments map[string]string `json:"arguments"`
	}
	if err := json.Unmarshal(rawParams(params), &get); err != nil {
		return nil, &protocol.JsonRpcError{Code: protocol.ErrInvalidParams, Message: "invalid prompts/get parameters: " + err.Error()}
	}
	logger.Info("Prompt get requested for:", get.Name)

	s.mu.Lock()
	renderer := s.renderers[get.Name]
	s.mu.Unlock()
	if renderer == nil {
		return nil, &protocol.JsonRpcError{Code: protocol.ErrInvalidParams, Message: "prompt not found: " + get.Name}
	}

	result, err := renderer(get.Arguments)
	if err != nil {
		return nil, &protocol.JsonRpcError{Code: protocol.ErrInvalidParams, Message: err.Error()}
	}
	return result, nil
}
