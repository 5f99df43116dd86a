package main

import (
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/erc7824/walletbridge/pkg/log"
)

type Mode string

const (
	ModeProduction Mode = "production"
	ModeTest       Mode = "test"
)

const (
	configDirPathEnv     = "WALLETBRIDGE_CONFIG_DIR_PATH"
	defaultConfigDirPath = "."
)

// GatewayConfig holds the listen settings of the WebSocket gateway.
type GatewayConfig struct {
	ListenAddr        string `env:"WALLETBRIDGE_LISTEN_ADDR" env-default:":8000"`
	MetricsListenAddr string `env:"WALLETBRIDGE_METRICS_LISTEN_ADDR" env-default:":4242"`
	// AuthSecret enables bearer-token authentication on the upgrade
	// endpoint when non-empty.
	AuthSecret string `env:"WALLETBRIDGE_AUTH_SECRET" env-default:""`
}

// Config represents the overall application configuration
type Config struct {
	mode          Mode
	networks      NetworksConfig
	networkName   string
	privateKeyHex string
	dbConf        DatabaseConfig
	gateway       GatewayConfig
}

// LoadConfig builds configuration from environment variables
func LoadConfig(logger log.Logger) (*Config, error) {
	logger = logger.WithName("config")

	configDirPath := os.Getenv(configDirPathEnv)
	if configDirPath == "" {
		configDirPath = defaultConfigDirPath
	}

	// Load .env files
	configDotEnvPath := filepath.Join(configDirPath, ".env")
	logger.Info("loading .env file", "path", configDotEnvPath)
	if err := godotenv.Load(configDotEnvPath); err != nil {
		logger.Warn(".env file not found")
	}

	mode := Mode(os.Getenv("WALLETBRIDGE_MODE"))
	if mode == "" {
		mode = ModeProduction
	} else if mode != ModeProduction && mode != ModeTest {
		logger.Fatal("invalid WALLETBRIDGE_MODE value", "value", mode)
	}
	logger.Info("set mode", "value", mode)

	// Get database URL from environment variables
	var dbConf DatabaseConfig
	dbURL := os.Getenv("WALLETBRIDGE_DATABASE_URL")

	// If DATABASE_URL is not empty, parse the connection string
	// Otherwise, read the envs in usual way
	if dbURL != "" {
		var err error
		dbConf, err = ParseConnectionString(dbURL)
		if err != nil {
			logger.Error("failed to parse connection string", "err", err)
			return nil, err
		}
	} else {
		if err := cleanenv.ReadEnv(&dbConf); err != nil {
			logger.Error("failed to read env", "err", err)
			return nil, err
		}
	}

	var gateway GatewayConfig
	if err := cleanenv.ReadEnv(&gateway); err != nil {
		logger.Error("failed to read env", "err", err)
		return nil, err
	}

	// Retrieve the private key backing the local wallet.
	privateKeyHex := os.Getenv("WALLETBRIDGE_PRIVATE_KEY")
	if privateKeyHex == "" {
		logger.Fatal("WALLETBRIDGE_PRIVATE_KEY environment variable is required")
	}

	networks, err := LoadNetworks(configDirPath)
	if err != nil {
		logger.Fatal("failed to load networks", "error", err)
	}

	networkName := os.Getenv("WALLETBRIDGE_NETWORK")
	if networkName == "" {
		networkName = networks.DefaultName()
		logger.Info("no network selected, using default", "network", networkName)
	}
	if _, ok := networks.GetByName(networkName); !ok {
		logger.Fatal("selected network is not configured", "network", networkName)
	}

	config := Config{
		mode:          mode,
		networks:      networks,
		networkName:   networkName,
		privateKeyHex: privateKeyHex,
		dbConf:        dbConf,
		gateway:       gateway,
	}

	return &config, nil
}
