package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
)

// Handler processes one IPC command request.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Serve accepts clients on listener until ctx is cancelled or the listener
// closes, answering one request per connection. All in-flight connections
// are drained before Serve returns.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	var inflight sync.WaitGroup
	defer inflight.Wait()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept IPC connection: %w", err)
		}

		inflight.Add(1)
		go func() {
			defer inflight.Done()
			serveConn(ctx, conn, handler)
		}()
	}
}

// serveConn reads a single request, dispatches it, and writes the reply.
// Malformed input gets an error response rather than a dropped connection.
func serveConn(ctx context.Context, conn net.Conn, handler Handler) {
	defer conn.Close()

	var req Request
	reply := json.NewEncoder(conn)
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		if isTransportError(err) {
			_ = reply.Encode(Response{OK: false, Error: fmt.Sprintf("read request: %v", err)})
			return
		}
		_ = reply.Encode(Response{OK: false, Error: fmt.Sprintf("decode request: %v", err)})
		return
	}

	_ = reply.Encode(handler.Handle(ctx, req))
}
