package protocol

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"strings"
)

// maxLineBytes bounds one incoming message. Documents run large but a
// request should never approach this.
const maxLineBytes = 10 * 1024 * 1024

// serverState is the connection lifecycle.
type serverState int

const (
	stateUninitialized serverState = iota
	stateReady
	stateShuttingDown
	stateTerminated
)

// Server reads newline-delimited JSON-RPC requests, dispatches them
// through a registry and writes responses. One request is handled at a
// time; stdin EOF finishes the in-flight request then shuts down.
type Server struct {
	info     ServerInfo
	registry *Registry
	logger   *slog.Logger

	in  io.Reader
	out io.Writer

	state serverState
}

// NewServer creates a server speaking on the given reader/writer pair
// (stdin/stdout in production).
func NewServer(info ServerInfo, registry *Registry, in io.Reader, out io.Writer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		info:     info,
		registry: registry,
		logger:   logger,
		in:       in,
		out:      out,
		state:    stateUninitialized,
	}
}

// Run serves until stdin EOF, a shutdown request, or ctx cancellation.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			s.state = stateTerminated
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		s.handleLine(ctx, []byte(line))

		if s.state == stateShuttingDown {
			break
		}
	}
	s.state = stateTerminated

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read request stream: %w", err)
	}
	s.logger.Info("server_stopped")
	return nil
}

// handleLine parses and dispatches one message. Any panic below the
// dispatch boundary becomes an internal error response; the process
// never dies from one bad request.
func (s *Server) handleLine(ctx context.Context, line []byte) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		s.writeError(json.RawMessage("null"), NewError(CodeParseError, "parse error: "+err.Error()))
		return
	}
	if req.JSONRPC != JSONRPCVersion || req.Method == "" {
		if req.IsNotification() {
			return
		}
		s.writeError(req.ID, NewError(CodeInvalidRequest, "invalid request"))
		return
	}

	result, rpcErr := s.dispatch(ctx, &req)
	if req.IsNotification() {
		return
	}
	if rpcErr != nil {
		s.writeError(req.ID, rpcErr)
		return
	}
	s.write(Response{JSONRPC: JSONRPCVersion, ID: req.ID, Result: result})
}

func (s *Server) dispatch(ctx context.Context, req *Request) (result any, rpcErr *RPCError) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler_panic",
				slog.String("method", req.Method),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			result = nil
			rpcErr = NewError(CodeInternalError, fmt.Sprintf("internal error: %v", r))
		}
	}()

	// Only initialize and notifications are allowed before the handshake.
	if s.state == stateUninitialized && req.Method != "initialize" &&
		!strings.HasPrefix(req.Method, "notifications/") {
		return nil, NewError(CodeNotInitialized, "server not initialized")
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize()
	case "ping":
		return map[string]any{}, nil
	case "tools/list":
		return map[string]any{"tools": s.registry.Tools()}, nil
	case "tools/call":
		return s.handleToolCall(ctx, req.Params)
	case "resources/list":
		return map[string]any{"resources": s.registry.Resources()}, nil
	case "resources/read":
		return s.handleResourceRead(ctx, req.Params)
	case "prompts/list":
		return map[string]any{"prompts": s.registry.Prompts()}, nil
	case "prompts/get":
		return s.handlePromptGet(ctx, req.Params)
	case "shutdown":
		s.state = stateShuttingDown
		return map[string]any{}, nil
	case "notifications/initialized", "notifications/cancelled":
		return nil, nil
	default:
		if strings.HasPrefix(req.Method, "notifications/") {
			return nil, nil
		}
		return nil, NewError(CodeMethodNotFound, "method not found: "+req.Method)
	}
}

func (s *Server) handleInitialize() (any, *RPCError) {
	s.state = stateReady
	s.logger.Info("server_initialized", slog.String("name", s.info.Name))
	return InitializeResult{
		ProtocolVersion: MCPVersion,
		Capabilities: map[string]any{
			"tools":     map[string]any{},
			"resources": map[string]any{},
			"prompts":   map[string]any{},
		},
		ServerInfo: s.info,
	}, nil
}

func (s *Server) handleToolCall(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var p callParams
	if err := json.Unmarshal(params, &p); err != nil || p.Name == "" {
		return nil, NewError(CodeInvalidParams, "tools/call requires a tool name")
	}

	result, err := s.registry.CallTool(ctx, p.Name, p.Arguments)
	if err != nil {
		return nil, asRPCError(err)
	}
	return result, nil
}

func (s *Server) handleResourceRead(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var p readParams
	if err := json.Unmarshal(params, &p); err != nil || p.URI == "" {
		return nil, NewError(CodeInvalidParams, "resources/read requires a uri")
	}

	contents, err := s.registry.ReadResource(ctx, p.URI)
	if err != nil {
		return nil, asRPCError(err)
	}
	return map[string]any{"contents": []*ResourceContents{contents}}, nil
}

func (s *Server) handlePromptGet(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var p callParams
	if err := json.Unmarshal(params, &p); err != nil || p.Name == "" {
		return nil, NewError(CodeInvalidParams, "prompts/get requires a prompt name")
	}

	result, err := s.registry.GetPrompt(ctx, p.Name, p.Arguments)
	if err != nil {
		return nil, asRPCError(err)
	}
	return result, nil
}

// asRPCError passes RPCErrors through and wraps everything else as an
// internal error.
func asRPCError(err error) *RPCError {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return NewError(CodeInternalError, err.Error())
}

func (s *Server) write(resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("response_marshal_failed", slog.String("error", err.Error()))
		return
	}
	if _, err := s.out.Write(append(data, '\n')); err != nil {
		s.logger.Error("response_write_failed", slog.String("error", err.Error()))
	}
}

func (s *Server) writeError(id json.RawMessage, rpcErr *RPCError) {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	s.write(Response{JSONRPC: JSONRPCVersion, ID: id, Error: rpcErr})
}
