package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"liquidationLedger/internal/chain"
	"liquidationLedger/internal/config"
	"liquidationLedger/internal/explorer"
	"liquidationLedger/internal/registry"
	"liquidationLedger/internal/router"
	"liquidationLedger/internal/scanner"
	"liquidationLedger/internal/sink"
)

func main() {
	root := &cobra.Command{
		Use:          "scanner",
		Short:        "Liquidation accounting scanner",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Scan a time window and emit accounting records",
		RunE:  runScan,
	}

	runCmd.Flags().String("rpc", "", "EVM RPC URL")
	runCmd.Flags().Uint64("chain-id", 0, "chain id (e.g. 10 for Optimism)")
	runCmd.Flags().String("sender", "", "liquidation sender address to record")
	runCmd.Flags().Uint64("start-timestamp", 0, "window start (unix seconds)")
	runCmd.Flags().Uint64("end-timestamp", 0, "window end (unix seconds)")
	runCmd.Flags().Uint64("window-size", 2000, "blocks per log query")
	runCmd.Flags().String("sink", config.SinkCSV, "output sink (csv, sheets, postgres)")
	runCmd.Flags().String("out", "./data/records.csv", "CSV output path")
	runCmd.Flags().String("etherscan-api-key", "", "block explorer API key")
	runCmd.Flags().String("etherscan-url", "", "block explorer API URL override")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN (postgres sink)")
	runCmd.Flags().String("google-credentials", "", "Google credentials JSON path (sheets sink)")
	runCmd.Flags().String("google-folder-id", "", "Drive folder id (sheets sink)")
	runCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	runCmd.Flags().Bool("checkpoint-enabled", false, "resume from checkpoint")
	runCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	runCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	runCmd.Flags().Bool("no-progress", false, "disable the progress bar")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	reg := registry.New()
	if err := reg.Validate(); err != nil {
		return fmt.Errorf("asset registry: %w", err)
	}
	routerAddr, err := reg.RouterOf(cfg.ChainID)
	if err != nil {
		return err
	}
	topic0, err := router.SwapEventTopic()
	if err != nil {
		return err
	}
	sender := common.HexToAddress(cfg.Sender)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	rpcChainID, err := chainClient.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	if !rpcChainID.IsUint64() || rpcChainID.Uint64() != cfg.ChainID {
		return fmt.Errorf("rpc endpoint reports chain %s, configured chain is %d", rpcChainID, cfg.ChainID)
	}

	explorerClient, err := explorer.NewClient(explorer.Config{
		APIKey:  cfg.EtherscanAPIKey,
		ChainID: cfg.ChainID,
		BaseURL: cfg.EtherscanBaseURL,
	})
	if err != nil {
		return err
	}

	out, err := buildSink(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer out.Close()

	decoder, err := router.NewDecoder(cfg.ChainID, sender, reg, chainClient)
	if err != nil {
		return err
	}

	runner := scanner.NewRunner(scanner.RunConfig{
		StartTime:         cfg.StartTime,
		EndTime:           cfg.EndTime,
		WindowSize:        cfg.WindowSize,
		Router:            routerAddr,
		Topic0:            topic0,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		Progress:          !cfg.NoProgress,
	}, chainClient, explorerClient, decoder, out, logger)

	logger.Info("scanner start",
		zap.String("rpc", cfg.RPCURL),
		zap.Uint64("chain_id", cfg.ChainID),
		zap.String("sender", sender.Hex()),
		zap.Uint64("start_timestamp", cfg.StartTime),
		zap.Uint64("end_timestamp", cfg.EndTime),
		zap.Uint64("window_size", cfg.WindowSize),
		zap.String("sink", cfg.Sink),
	)

	return runner.Run(ctx)
}

func buildSink(ctx context.Context, cfg config.Config, logger *zap.Logger) (sink.Sink, error) {
	switch cfg.Sink {
	case config.SinkCSV:
		return sink.NewCSVSink(cfg.Out)
	case config.SinkSheets:
		creds, err := config.LoadGoogleCredentials(cfg.GoogleCredentials)
		if err != nil {
			return nil, err
		}
		return sink.NewSheetsSink(ctx, sink.SheetsConfig{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURI:  creds.RedirectURI,
			AccessToken:  creds.AccessToken,
			RefreshToken: creds.RefreshToken,
			FolderID:     cfg.GoogleFolderID,
		}, logger)
	case config.SinkPostgres:
		return sink.NewPostgresSink(ctx, cfg.PGDSN)
	default:
		return nil, fmt.Errorf("unknown sink %q", cfg.Sink)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
