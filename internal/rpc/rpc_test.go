package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/bridgewarden/bridgewarden/internal/logger"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stdout"})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	return log
}

func readResponses(t *testing.T, out *bytes.Buffer) []Response {
	t.Helper()
	var responses []Response
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line == "" {
			continue
		}
		var resp Response
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			t.Fatalf("failed to unmarshal response line %q: %v", line, err)
		}
		responses = append(responses, resp)
	}
	return responses
}

func TestServeDispatchesRegisteredMethod(t *testing.T) {
	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping","params":{}}` + "\n")
	out := &bytes.Buffer{}
	server := NewServer(in, out, newTestLogger(t))

	server.Handle("ping", func(ctx context.Context, params json.RawMessage) (any, *Error) {
		return map[string]string{"pong": "ok"}, nil
	})

	if err := server.Serve(context.Background()); err != nil {
		t.Fatalf("Serve returned error: %v", err)
	}

	responses := readResponses(t, out)
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}
	if responses[0].Error != nil {
		t.Fatalf("expected no error, got %+v", responses[0].Error)
	}
}

func TestServeReturnsErrorForUnknownMethod(t *testing.T) {
	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"does_not_exist"}` + "\n")
	out := &bytes.Buffer{}
	server := NewServer(in, out, newTestLogger(t))

	if err := server.Serve(context.Background()); err != nil {
		t.Fatalf("Serve returned error: %v", err)
	}

	responses := readResponses(t, out)
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}
	if responses[0].Error == nil {
		t.Fatal("expected an error response for an unknown method")
	}
	if responses[0].Error.Code != invalidParamsCode {
		t.Errorf("expected code %d, got %d", invalidParamsCode, responses[0].Error.Code)
	}
}

func TestServeReturnsErrorForMalformedJSON(t *testing.T) {
	in := strings.NewReader(`not json` + "\n")
	out := &bytes.Buffer{}
	server := NewServer(in, out, newTestLogger(t))

	if err := server.Serve(context.Background()); err != nil {
		t.Fatalf("Serve returned error: %v", err)
	}

	responses := readResponses(t, out)
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}
	if responses[0].Error == nil {
		t.Fatal("expected an error response for malformed JSON")
	}
}

func TestServeContinuesAfterOneBadLine(t *testing.T) {
	in := strings.NewReader(strings.Join([]string{
		`not json`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
	}, "\n") + "\n")
	out := &bytes.Buffer{}
	server := NewServer(in, out, newTestLogger(t))
	server.Handle("ping", func(ctx context.Context, params json.RawMessage) (any, *Error) {
		return "ok", nil
	})

	if err := server.Serve(context.Background()); err != nil {
		t.Fatalf("Serve returned error: %v", err)
	}

	responses := readResponses(t, out)
	if len(responses) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(responses))
	}
	if responses[0].Error == nil {
		t.Error("expected the first line to produce an error response")
	}
	if responses[1].Error != nil {
		t.Errorf("expected the second line to succeed, got error %+v", responses[1].Error)
	}
}

func TestHandleReplacesExistingMethod(t *testing.T) {
	server := NewServer(strings.NewReader(""), &bytes.Buffer{}, newTestLogger(t))

	server.Handle("echo", func(ctx context.Context, params json.RawMessage) (any, *Error) {
		return "first", nil
	})
	server.Handle("echo", func(ctx context.Context, params json.RawMessage) (any, *Error) {
		return "second", nil
	})

	result, rpcErr := server.methods["echo"](context.Background(), nil)
	if rpcErr != nil {
		t.Fatalf("unexpected error: %+v", rpcErr)
	}
	if result != "second" {
		t.Errorf("expected the second handler to win, got %v", result)
	}
}
