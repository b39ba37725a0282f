// Package rpc implements a JSON-RPC 2.0 transport framed one message per
// line on stdin/stdout, dispatching initialize, tools/list, and
// tools/call to a Gateway.
package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/bridgewarden/bridgewarden/internal/logger"
)

// Request is one JSON-RPC 2.0 request line.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is one JSON-RPC 2.0 response line.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC 2.0 error object. Codes fall in [-32099,-32000] for
// bad input (path escape, unknown tool, malformed arguments) per the
// boundary's error categorization; pipeline-internal failures are never
// raised here — they surface as a BLOCK decision inside a normal result.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// invalidParamsCode is used for malformed or unknown-tool requests.
const invalidParamsCode = -32001

// MethodHandler resolves one JSON-RPC method to a result, or an *Error
// for bad input. A handler should never return a Go error for a policy
// decision — those are expressed as a normal result value.
type MethodHandler func(ctx context.Context, params json.RawMessage) (any, *Error)

// Server reads one Request per line from in and writes one Response per
// line to out, dispatching to registered method handlers.
type Server struct {
	in      *bufio.Scanner
	out     io.Writer
	logger  *logger.Logger
	methods map[string]MethodHandler
}

// NewServer returns a Server reading newline-delimited requests from in
// and writing newline-delimited responses to out.
func NewServer(in io.Reader, out io.Writer, log *logger.Logger) *Server {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	return &Server{
		in:      scanner,
		out:     out,
		logger:  log,
		methods: make(map[string]MethodHandler),
	}
}

// Handle registers a method handler. Calling Handle for a method already
// registered replaces the previous handler.
func (s *Server) Handle(method string, handler MethodHandler) {
	s.methods[method] = handler
}

// Serve reads requests until ctx is cancelled or the input stream ends,
// dispatching each to its registered handler and writing the response.
// Malformed JSON or an unknown method produces a JSON-RPC error response
// rather than terminating the loop.
func (s *Server) Serve(ctx context.Context) error {
	for s.in.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := s.in.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeError(nil, invalidParamsCode, fmt.Sprintf("malformed request: %v", err))
			continue
		}

		handler, ok := s.methods[req.Method]
		if !ok {
			s.writeError(req.ID, invalidParamsCode, fmt.Sprintf("unknown method: %s", req.Method))
			continue
		}

		result, rpcErr := handler(ctx, req.Params)
		if rpcErr != nil {
			s.writeError(req.ID, rpcErr.Code, rpcErr.Message)
			continue
		}

		s.writeResult(req.ID, result)
	}
	return s.in.Err()
}

func (s *Server) writeResult(id json.RawMessage, result any) {
	s.write(Response{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) writeError(id json.RawMessage, code int, message string) {
	s.write(Response{JSONRPC: "2.0", ID: id, Error: &Error{Code: code, Message: message}})
}

func (s *Server) write(resp Response) {
	line, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("rpc: marshaling response", err)
		return
	}
	line = append(line, '\n')
	if _, err := s.out.Write(line); err != nil {
		s.logger.Error("rpc: writing response", err)
	}
}
