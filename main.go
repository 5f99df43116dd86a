package main

import (
	"context"
	"embed"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/erc7824/walletbridge/pkg/chainclient"
	"github.com/erc7824/walletbridge/pkg/provider"
	"github.com/erc7824/walletbridge/pkg/sign"
)

//go:embed config/migrations/*/*.sql
var embedMigrations embed.FS

func main() {
	logger := NewLoggerIPFS("root")

	config, err := LoadConfig(logger)
	if err != nil {
		logger.Fatal("failed to load configuration", "error", err)
	}

	db, err := ConnectToDB(config.dbConf)
	if err != nil {
		logger.Fatal("Failed to setup database", "error", err)
	}

	signer, err := sign.NewSigner(config.privateKeyHex)
	if err != nil {
		logger.Fatal("failed to initialise signer", "error", err)
	}
	logger.Info("wallet signer initialized", "address", signer.Address().Hex())

	network, _ := config.networks.GetByName(config.networkName)
	logger.Info("serving network", "network", network.Name, "chainID", network.ChainID)

	chain := chainclient.New(network.RPCURL, chainclient.WithLogger(logger))
	wallet := NewLocalWallet(signer, chain, network, logger)

	var subscriptions provider.SubscriptionEngine
	var subEngine *WSSubscriptionEngine
	if network.WSURL != "" {
		subEngine, err = NewWSSubscriptionEngine(network.WSURL, logger)
		if err != nil {
			logger.Fatal("failed to connect subscription engine", "error", err)
		}
		subscriptions = subEngine
	} else {
		logger.Warn("network has no ws endpoint, subscriptions disabled", "network", network.Name)
	}

	prv, err := provider.New(provider.Options{
		Wallet:        wallet,
		ChainClient:   chain,
		Subscriptions: subscriptions,
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal("failed to initialize provider", "error", err)
	}

	if _, err := prv.Enable(context.Background()); err != nil {
		logger.Fatal("failed to authorize wallet session", "error", err)
	}

	// Initialize Prometheus metrics
	metrics := NewMetrics()

	requestStore := NewRequestStore(db)
	authManager := NewAuthManager(config.gateway.AuthSecret)
	gateway := NewGateway(prv, authManager, requestStore, metrics, logger)

	rpcListenAddr := config.gateway.ListenAddr
	rpcListenEndpoint := "/ws"
	rpcMux := http.NewServeMux()
	rpcMux.HandleFunc(rpcListenEndpoint, gateway.HandleConnection)

	rpcServer := &http.Server{
		Addr:    rpcListenAddr,
		Handler: rpcMux,
	}

	metricsListenAddr := config.gateway.MetricsListenAddr
	metricsEndpoint := "/metrics"
	// Set up a separate mux for metrics
	metricsMux := http.NewServeMux()
	metricsMux.Handle(metricsEndpoint, promhttp.Handler())

	// Start metrics server on a separate port
	metricsServer := &http.Server{
		Addr:    metricsListenAddr,
		Handler: metricsMux,
	}

	go func() {
		logger.Info("Prometheus metrics available", "listenAddr", metricsListenAddr, "endpoint", metricsEndpoint)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failure", "error", err)
		}
	}()

	// Start the main HTTP server.
	go func() {
		logger.Info("RPC server available", "listenAddr", rpcListenAddr, "endpoint", rpcListenEndpoint)
		if err := rpcServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("RPC server failure", "error", err)
		}
	}()

	// Wait for shutdown signal.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")

	if subEngine != nil {
		if err := subEngine.Close(); err != nil {
			logger.Error("failed to close subscription engine", "error", err)
		}
	}

	// Shutdown metrics server
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shut down metrics server", "error", err)
	}

	// Shutdown RPC server
	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rpcServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shut down RPC server", "error", err)
	}

	logger.Info("shutdown complete")
}
