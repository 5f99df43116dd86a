package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/erc7824/walletbridge/pkg/jsonrpc"
	"github.com/erc7824/walletbridge/pkg/log"
	"github.com/erc7824/walletbridge/pkg/provider"
)

// WSSubscriptionEngine serves subscribe/unsubscribe over a dedicated
// WebSocket connection to the chain endpoint. Subscription notifications
// arriving on the socket are fanned out to registered handlers.
type WSSubscriptionEngine struct {
	conn   *websocket.Conn
	lg     log.Logger
	lastID atomic.Uint64

	mu       sync.Mutex
	pending  map[uint64]chan subscriptionReply
	handlers []func(n provider.Notification)

	closeOnce sync.Once
	closed    chan struct{}
}

type subscriptionReply struct {
	result json.RawMessage
	err    *jsonrpc.Error
}

// subscriptionFrame covers both reply and notification frames on the
// subscription socket.
type subscriptionFrame struct {
	ID     uint64          `json:"id"`
	Method string          `json:"method"`
	Result json.RawMessage `json:"result"`
	Error  *jsonrpc.Error  `json:"error"`
	Params json.RawMessage `json:"params"`
}

// NewWSSubscriptionEngine dials the endpoint and starts the read loop.
func NewWSSubscriptionEngine(wsURL string, lg log.Logger) (*WSSubscriptionEngine, error) {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial subscription endpoint: %w", err)
	}

	e := &WSSubscriptionEngine{
		conn:    conn,
		lg:      lg.WithName("subscriptions"),
		pending: make(map[uint64]chan subscriptionReply),
		closed:  make(chan struct{}),
	}
	go e.readMessages()
	return e, nil
}

// HandleRequest forwards a subscribe or unsubscribe request to the chain
// endpoint and returns its result value.
func (e *WSSubscriptionEngine) HandleRequest(ctx context.Context, req jsonrpc.Request) (any, error) {
	id := e.lastID.Add(1)
	replyCh := make(chan subscriptionReply, 1)

	e.mu.Lock()
	e.pending[id] = replyCh
	err := e.conn.WriteJSON(jsonrpc.NewRequest(id, req.Method, req.Params))
	e.mu.Unlock()
	if err != nil {
		e.dropPending(id)
		return nil, fmt.Errorf("failed to send subscription request: %w", err)
	}

	select {
	case <-ctx.Done():
		e.dropPending(id)
		return nil, ctx.Err()
	case <-e.closed:
		return nil, fmt.Errorf("subscription connection closed")
	case reply := <-replyCh:
		if reply.err != nil {
			return nil, reply.err
		}
		var result any
		if len(reply.result) > 0 {
			if err := json.Unmarshal(reply.result, &result); err != nil {
				return nil, err
			}
		}
		return result, nil
	}
}

// OnNotification registers a handler for subscription notifications.
func (e *WSSubscriptionEngine) OnNotification(handler func(n provider.Notification)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
}

// Close tears down the socket. Pending requests fail with a closed error.
func (e *WSSubscriptionEngine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.closed)
		err = e.conn.Close()
	})
	return err
}

func (e *WSSubscriptionEngine) readMessages() {
	defer e.Close()

	for {
		_, messageBytes, err := e.conn.ReadMessage()
		if err != nil {
			select {
			case <-e.closed:
			default:
				e.lg.Error("subscription connection failed", "error", err)
			}
			return
		}

		var frame subscriptionFrame
		if err := json.Unmarshal(messageBytes, &frame); err != nil {
			e.lg.Warn("discarding malformed subscription frame", "error", err)
			continue
		}

		if frame.Method != "" {
			e.notify(frame)
			continue
		}

		e.mu.Lock()
		replyCh, ok := e.pending[frame.ID]
		delete(e.pending, frame.ID)
		e.mu.Unlock()
		if !ok {
			e.lg.Debug("discarding reply with unknown id", "id", frame.ID)
			continue
		}
		replyCh <- subscriptionReply{result: frame.Result, err: frame.Error}
	}
}

// notify fans a notification frame out to the registered handlers.
func (e *WSSubscriptionEngine) notify(frame subscriptionFrame) {
	var params any
	if len(frame.Params) > 0 {
		if err := json.Unmarshal(frame.Params, &params); err != nil {
			e.lg.Warn("discarding notification with malformed params", "error", err)
			return
		}
	}

	e.mu.Lock()
	handlers := append([](func(n provider.Notification))(nil), e.handlers...)
	e.mu.Unlock()

	for _, handler := range handlers {
		handler(provider.Notification{Method: frame.Method, Params: params})
	}
}

func (e *WSSubscriptionEngine) dropPending(id uint64) {
	e.mu.Lock()
	delete(e.pending, id)
	e.mu.Unlock()
}
