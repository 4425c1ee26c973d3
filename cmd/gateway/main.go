package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gregtusar/hypergate/api"
	"github.com/gregtusar/hypergate/internal/config"
	"github.com/gregtusar/hypergate/pkg/gateway"
	"github.com/gregtusar/hypergate/pkg/hyperliquid"
)

var (
	cfgFile string
	logger  *logrus.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hypergate",
		Short: "Hyperliquid perpetuals trading gateway",
		Long:  `An HTTP gateway exposing validated trading and market data operations against the Hyperliquid perpetuals exchange`,
		Run:   runGateway,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runGateway(cmd *cobra.Command, args []string) {
	// Local .env overrides are convenient in development; missing file is fine
	_ = godotenv.Load()

	logger = logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load(cfgFile)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	if strings.EqualFold(cfg.Logging.Format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		logger.WithError(err).Error("Invalid log level, using INFO")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signer, err := hyperliquid.NewSigner(cfg.Hyperliquid.PrivateKey)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load signing key")
	}

	baseURL := hyperliquid.MainnetAPIURL
	wsURL := hyperliquid.MainnetWSURL
	if cfg.Hyperliquid.Testnet {
		baseURL = hyperliquid.TestnetAPIURL
		wsURL = hyperliquid.TestnetWSURL
	}

	info := hyperliquid.NewInfo(baseURL, logger)
	exchange := hyperliquid.NewExchange(signer, baseURL, cfg.Hyperliquid.VaultAddress, logger)

	// The trading identity defaults to the wallet behind the signing key. A
	// separately configured account address means the key is an agent wallet
	// acting for that account.
	walletAddress := signer.Address().Hex()
	accountAddress := cfg.Hyperliquid.AccountAddress
	if accountAddress == "" {
		accountAddress = walletAddress
	}
	if !strings.EqualFold(accountAddress, walletAddress) {
		logger.WithFields(logrus.Fields{
			"wallet":  gateway.MaskAddress(walletAddress),
			"account": gateway.MaskAddress(accountAddress),
		}).Info("Agent wallet mode: signing for a separate account")
	}
	logger.WithField("account", gateway.MaskAddress(accountAddress)).Info("Trading identity resolved")

	// Verification is advisory only: a fresh account with no state should
	// still be able to start the gateway.
	if _, err := info.UserState(ctx, accountAddress, ""); err != nil {
		logger.WithError(err).Warn("Could not verify account state at startup")
	}

	gw := gateway.New(gateway.Config{
		AccountAddress: accountAddress,
		VaultAddress:   cfg.Hyperliquid.VaultAddress,
		MaxOrderSize:   decimal.NewFromFloat(cfg.Hyperliquid.MaxOrderSize),
	}, info, exchange, logger)

	if cfg.Hyperliquid.EnableMidsFeed {
		feed := hyperliquid.NewMidsFeed(wsURL, logger)
		if err := feed.Connect(ctx); err != nil {
			logger.WithError(err).Warn("Mids feed unavailable, serving mid prices over REST")
		} else {
			gw.SetMidsSource(feed)
			logger.Info("Live mids feed connected")
		}
	}

	var auth *api.Authenticator
	if cfg.Server.Auth.PublicKeyPEM != "" {
		auth, err = api.NewAuthenticator(cfg.Server.Auth.PublicKeyPEM, cfg.Server.Auth.Issuer, cfg.Server.Auth.Audience)
		if err != nil {
			logger.WithError(err).Fatal("Failed to load auth public key")
		}
	} else {
		logger.Warn("No auth public key configured, API authentication is disabled")
	}

	apiServer := api.NewServer(gw, auth, logger, fmt.Sprintf("%d", cfg.Server.Port))
	go func() {
		if err := apiServer.Start(); err != nil {
			logger.WithError(err).Fatal("Failed to start API server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Gateway is running. Press Ctrl+C to stop.")

	<-sigChan
	logger.Info("Received shutdown signal")

	cancel()
	logger.Info("Gateway stopped")
}
