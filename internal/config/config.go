package config

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/gregtusar/hypergate/pkg/secrets"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Hyperliquid HyperliquidConfig `mapstructure:"hyperliquid"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	GCP         GCPConfig         `mapstructure:"gcp"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Auth AuthConfig `mapstructure:"auth"`
}

// AuthConfig configures bearer-token verification on the API surface. An
// empty PublicKeyPEM disables auth entirely.
type AuthConfig struct {
	PublicKeyPEM string `mapstructure:"public_key_pem"`
	Issuer       string `mapstructure:"issuer"`
	Audience     string `mapstructure:"audience"`
}

type HyperliquidConfig struct {
	PrivateKey     string  `mapstructure:"private_key"`
	AccountAddress string  `mapstructure:"account_address"`
	VaultAddress   string  `mapstructure:"vault_address"`
	Testnet        bool    `mapstructure:"testnet"`
	MaxOrderSize   float64 `mapstructure:"max_order_size"`
	EnableMidsFeed bool    `mapstructure:"enable_mids_feed"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type GCPConfig struct {
	ProjectID       string              `mapstructure:"project_id"`
	UseSecrets      bool                `mapstructure:"use_secrets"`
	CredentialsFile string              `mapstructure:"credentials_file"`
	SecretNames     secrets.SecretNames `mapstructure:"secret_names"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/hypergate")
	}

	v.SetEnvPrefix("HYPERGATE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; use defaults and environment
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&config)

	if config.GCP.UseSecrets && config.GCP.ProjectID != "" {
		ctx := context.Background()
		logger := logrus.New()
		if err := loadSecretsFromGCP(ctx, &config, logger); err != nil {
			return nil, fmt.Errorf("error loading secrets from GCP: %w", err)
		}
	}

	if config.Hyperliquid.PrivateKey == "" {
		return nil, fmt.Errorf("hyperliquid private key is required (set HYPERLIQUID_PRIVATE_KEY)")
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.auth.public_key_pem", "")
	v.SetDefault("server.auth.issuer", "")
	v.SetDefault("server.auth.audience", "")

	v.SetDefault("hyperliquid.testnet", false)
	v.SetDefault("hyperliquid.max_order_size", 100000.0)
	v.SetDefault("hyperliquid.enable_mids_feed", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("gcp.use_secrets", false)
	v.SetDefault("gcp.project_id", "")
	v.SetDefault("gcp.credentials_file", "")

	secretNames := secrets.DefaultSecretNames()
	v.SetDefault("gcp.secret_names.private_key", secretNames.PrivateKey)
	v.SetDefault("gcp.secret_names.account_address", secretNames.AccountAddress)
	v.SetDefault("gcp.secret_names.vault_address", secretNames.VaultAddress)
	v.SetDefault("gcp.secret_names.auth_public_key", secretNames.AuthPublicKey)
}

func overrideFromEnv(config *Config) {
	if key := os.Getenv("HYPERLIQUID_PRIVATE_KEY"); key != "" {
		config.Hyperliquid.PrivateKey = key
	}
	if address := os.Getenv("HYPERLIQUID_ACCOUNT_ADDRESS"); address != "" {
		config.Hyperliquid.AccountAddress = address
	}
	if vault := os.Getenv("HYPERLIQUID_VAULT_ADDRESS"); vault != "" {
		config.Hyperliquid.VaultAddress = vault
	}
	if testnet := os.Getenv("HYPERLIQUID_TESTNET"); testnet == "true" {
		config.Hyperliquid.Testnet = true
	}
	if maxSize := os.Getenv("MAX_ORDER_SIZE"); maxSize != "" {
		if parsed, err := strconv.ParseFloat(maxSize, 64); err == nil {
			config.Hyperliquid.MaxOrderSize = parsed
		}
	}

	if pem := os.Getenv("AUTH_PUBLIC_KEY_PEM"); pem != "" {
		config.Server.Auth.PublicKeyPEM = pem
	}
	if issuer := os.Getenv("AUTH_ISSUER"); issuer != "" {
		config.Server.Auth.Issuer = issuer
	}
	if audience := os.Getenv("AUTH_AUDIENCE"); audience != "" {
		config.Server.Auth.Audience = audience
	}

	if projectID := os.Getenv("GCP_PROJECT_ID"); projectID != "" {
		config.GCP.ProjectID = projectID
	}
	if useSecrets := os.Getenv("GCP_USE_SECRETS"); useSecrets == "true" {
		config.GCP.UseSecrets = true
	}
}

func loadSecretsFromGCP(ctx context.Context, config *Config, logger *logrus.Logger) error {
	secretManager, err := secrets.NewGCPSecretManager(ctx, config.GCP.ProjectID, config.GCP.CredentialsFile, logger)
	if err != nil {
		return fmt.Errorf("failed to create secret manager: %w", err)
	}
	defer secretManager.Close()

	// Only load secrets that are not already set
	if config.Hyperliquid.PrivateKey == "" {
		config.Hyperliquid.PrivateKey = secretManager.GetSecretWithDefault(ctx,
			config.GCP.SecretNames.PrivateKey, "")
	}
	if config.Hyperliquid.AccountAddress == "" {
		config.Hyperliquid.AccountAddress = secretManager.GetSecretWithDefault(ctx,
			config.GCP.SecretNames.AccountAddress, "")
	}
	if config.Hyperliquid.VaultAddress == "" {
		config.Hyperliquid.VaultAddress = secretManager.GetSecretWithDefault(ctx,
			config.GCP.SecretNames.VaultAddress, "")
	}
	if config.Server.Auth.PublicKeyPEM == "" {
		config.Server.Auth.PublicKeyPEM = secretManager.GetSecretWithDefault(ctx,
			config.GCP.SecretNames.AuthPublicKey, "")
	}

	logger.Info("Successfully loaded secrets from GCP Secret Manager")
	return nil
}
