package transport

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/richard-senior/matchpredict/internal/logger"
	"github.com/richard-senior/matchpredict/pkg/protocol"
)

// maxMessageSize bounds a single newline-delimited message.
const maxMessageSize = 4 * 1024 * 1024

// Transport defines the interface for communication methods
type Transport interface {
	ReadRequest() (*protocol.JsonRpcRequest, error)
	WriteResponse(*protocol.JsonRpcResponse) error
}

// StdioTransport reads newline-delimited JSON-RPC requests and writes one
// response per line. Logging must not go to the same writer.
type StdioTransport struct {
	scanner *bufio.Scanner
	mu      sync.Mutex
	out     io.Writer
}

// NewStdioTransport uses os.Stdin and os.Stdout.
func NewStdioTransport() *StdioTransport {
	return NewStreamTransport(os.Stdin, os.Stdout)
}

func NewStreamTransport(r io.Reader, w io.Writer) *StdioTransport {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), maxMessageSize)
	return &StdioTransport{scanner: s, out: w}
}

// ReadRequest blocks for the next non-empty line. It returns io.EOF when the
// input closes. A malformed line yields a *protocol.JsonRpcError so the caller
// can answer it and keep reading.
func (t *StdioTransport) ReadRequest() (*protocol.JsonRpcRequest, error) {
	for t.scanner.Scan() {
		line := t.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		logger.Debug("<<", string(line))
		return protocol.ParseJsonRpcRequest(line)
	}
	if err := t.scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read request: %w", err)
	}
	return nil, io.EOF
}

func (t *StdioTransport) WriteResponse(resp *protocol.JsonRpcResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	logger.Debug(">>", string(data))
	if _, err := t.out.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}

// IsRecoverable reports whether a ReadRequest error concerned only one
// message, so the stream can still be read.
func IsRecoverable(err error) bool {
	var rpcErr *protocol.JsonRpcError
	return errors.As(err, &rpcErr)
}
