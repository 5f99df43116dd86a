package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/erc7824/walletbridge/pkg/jsonrpc"
	"github.com/erc7824/walletbridge/pkg/log"
	"github.com/erc7824/walletbridge/pkg/provider"
)

// Gateway is the WebSocket front of the provider. Each connection speaks
// plain JSON-RPC: single requests and batches go through the provider's
// asynchronous dispatch, provider events are pushed to every connection
// as notification frames.
type Gateway struct {
	// upgrader handles the HTTP to WebSocket protocol upgrade
	upgrader websocket.Upgrader

	provider *provider.Provider
	auth     *AuthManager
	store    *RequestStore
	metrics  *Metrics
	hub      *gatewayConnectionHub
	logger   log.Logger
}

// NewGateway creates a Gateway over the given provider and wires provider
// events to connection broadcasts.
func NewGateway(prv *provider.Provider, auth *AuthManager, store *RequestStore, metrics *Metrics, logger log.Logger) *Gateway {
	g := &Gateway{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		provider: prv,
		auth:     auth,
		store:    store,
		metrics:  metrics,
		hub:      newGatewayConnectionHub(),
		logger:   logger.WithName("gateway"),
	}

	for _, event := range []string{provider.EventMessage, provider.EventNetworkChanged, provider.EventAccountsChanged} {
		g.provider.On(event, func(payload any) {
			g.broadcastEvent(event, payload)
		})
	}

	return g
}

// HandleConnection upgrades an HTTP request and serves the connection
// until either side closes it.
func (g *Gateway) HandleConnection(w http.ResponseWriter, r *http.Request) {
	subject, err := g.auth.Authenticate(r)
	if err != nil {
		g.logger.Warn("rejected unauthenticated connection", "error", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	websocketConn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error("failed to upgrade connection", "error", err)
		return
	}

	connID := uuid.NewString()
	conn := NewGatewayConnection(connID, subject, websocketConn, g.logger, g.metrics.MessageSent.Inc)
	if err := g.hub.Add(conn); err != nil {
		g.logger.Error("failed to register connection", "error", err)
		websocketConn.Close()
		return
	}

	g.metrics.ConnectionsTotal.Inc()
	g.metrics.ConnectedClients.Inc()
	g.logger.Info("connection established", "connectionID", connID, "subject", subject)

	ctx, cancel := context.WithCancel(r.Context())
	go conn.Serve(ctx, cancel)

	g.processMessages(ctx, conn)

	g.hub.Remove(connID)
	g.metrics.ConnectedClients.Dec()
	g.logger.Info("connection closed", "connectionID", connID)
}

// processMessages drains the connection's incoming messages and routes
// each through the provider. Responses preserve request order for batches.
func (g *Gateway) processMessages(ctx context.Context, conn *GatewayConnection) {
	for messageBytes := range conn.ProcessSink() {
		g.metrics.MessageReceived.Inc()

		if jsonrpc.IsBatch(messageBytes) {
			g.handleBatch(ctx, conn, messageBytes)
			continue
		}
		g.handleSingle(ctx, conn, messageBytes)
	}
}

func (g *Gateway) handleSingle(ctx context.Context, conn *GatewayConnection, messageBytes []byte) {
	req, err := jsonrpc.ParseRequest(messageBytes)
	if err != nil {
		g.writeResponse(conn, jsonrpc.NewErrorResponse(0, jsonrpc.Errorf(jsonrpc.CodeParseError, "failed to parse request: %s", err)))
		return
	}

	started := time.Now()
	g.provider.SendAsync(ctx, req, func(err error, res *jsonrpc.Response) {
		response := g.settle(conn, req, err, res, started)
		g.writeResponse(conn, response)
	})
}

func (g *Gateway) handleBatch(ctx context.Context, conn *GatewayConnection, messageBytes []byte) {
	reqs, err := jsonrpc.ParseBatch(messageBytes)
	if err != nil {
		g.writeResponse(conn, jsonrpc.NewErrorResponse(0, jsonrpc.Errorf(jsonrpc.CodeParseError, "failed to parse batch: %s", err)))
		return
	}

	started := time.Now()
	g.provider.SendAsyncBatch(ctx, reqs, func(err error, res []jsonrpc.Response) {
		if err != nil {
			// A failed member fails the whole batch; answer with a single
			// error frame carrying the failure.
			g.writeResponse(conn, jsonrpc.NewErrorResponse(0, jsonrpc.AsError(err)))
			return
		}

		for i, req := range reqs {
			g.recordRequest(conn, req, res[i], time.Since(started))
		}

		responseBytes, marshalErr := json.Marshal(res)
		if marshalErr != nil {
			g.logger.Error("failed to serialize batch response", "error", marshalErr)
			return
		}
		conn.Write(responseBytes)
	})
}

// settle normalizes a single dispatch outcome into a response frame and
// records it.
func (g *Gateway) settle(conn *GatewayConnection, req jsonrpc.Request, err error, res *jsonrpc.Response, started time.Time) jsonrpc.Response {
	var response jsonrpc.Response
	if err != nil {
		response = jsonrpc.NewErrorResponse(req.ID, jsonrpc.AsError(err))
	} else {
		response = *res
	}

	g.recordRequest(conn, req, response, time.Since(started))
	return response
}

func (g *Gateway) recordRequest(conn *GatewayConnection, req jsonrpc.Request, res jsonrpc.Response, duration time.Duration) {
	g.metrics.RecordRequest(req.Method, res.Error != nil, duration.Seconds())

	if g.store == nil {
		return
	}
	if err := g.store.StoreRequest(conn.ConnectionID(), req, res, duration); err != nil {
		g.logger.Error("failed to store request record", "error", err)
	}
}

func (g *Gateway) writeResponse(conn *GatewayConnection, res jsonrpc.Response) {
	responseBytes, err := json.Marshal(res)
	if err != nil {
		g.logger.Error("failed to serialize response", "error", err)
		return
	}
	conn.Write(responseBytes)
}

// broadcastEvent pushes a provider event to every active connection as a
// JSON-RPC notification frame.
func (g *Gateway) broadcastEvent(event string, payload any) {
	g.metrics.EventsEmitted.WithLabelValues(event).Inc()

	frame := map[string]any{
		"jsonrpc": "2.0",
		"method":  event,
		"params":  []any{payload},
	}
	frameBytes, err := json.Marshal(frame)
	if err != nil {
		g.logger.Error("failed to serialize event frame", "event", event, "error", err)
		return
	}
	g.hub.Broadcast(frameBytes)
}
