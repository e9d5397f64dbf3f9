package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/Layr-Labs/eigenx-dss-client/pkg/config"
	"github.com/Layr-Labs/eigenx-dss-client/pkg/persistence"
)

func main() {
	if err := newApp(os.Stdin, os.Stdout).Run(os.Args); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

// newApp builds the CLI. Commands read from in and render to out.
func newApp(in io.Reader, out io.Writer) *cli.App {
	return &cli.App{
		Name:  "signer-client",
		Usage: "Sign and verify messages with a remote signing service",
		Description: `A client for a remote signing service.

This client can:
- Sign a message of up to 300 characters and show the returned signature
- Ask the service whether a message/signature pair is valid
- Keep a durable local history of every message it signed`,
		Version:   "1.0.0",
		Reader:    in,
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "signer-url",
				Usage:   "Base URL of the signing service",
				Value:   config.DefaultSignerURL,
				EnvVars: []string{config.EnvSignerURL},
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "Timeout for each request to the signing service",
				Value:   config.DefaultTimeout,
				EnvVars: []string{config.EnvTimeout},
			},
			&cli.Float64Flag{
				Name:    "rate-limit",
				Usage:   "Maximum requests per second to the signing service (0 = unlimited)",
				Value:   0,
				EnvVars: []string{config.EnvRateLimit},
			},
			&cli.StringFlag{
				Name:    "persistence-type",
				Usage:   fmt.Sprintf("History backend (%s)", config.GetSupportedPersistenceTypesString()),
				Value:   string(config.DefaultPersistenceType),
				EnvVars: []string{config.EnvPersistenceType},
			},
			&cli.StringFlag{
				Name:    "data-path",
				Usage:   "Directory for the badger, leveldb and file backends",
				Value:   config.DefaultDataDir,
				EnvVars: []string{config.EnvDataPath},
			},
			&cli.StringFlag{
				Name:    "history-slot",
				Usage:   "Name of the slot the history is stored under",
				Value:   persistence.DefaultHistorySlot,
				EnvVars: []string{config.EnvHistorySlot},
			},
			&cli.StringFlag{
				Name:    "redis-address",
				Usage:   "Redis address for the redis backend",
				Value:   config.DefaultRedisAddress,
				EnvVars: []string{config.EnvRedisAddress},
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password",
				EnvVars: []string{config.EnvRedisPassword},
			},
			&cli.IntFlag{
				Name:    "redis-db",
				Usage:   "Redis database number",
				Value:   0,
				EnvVars: []string{config.EnvRedisDB},
			},
			&cli.StringFlag{
				Name:    "redis-key-prefix",
				Usage:   "Prefix for redis keys",
				EnvVars: []string{config.EnvRedisKeyPrefix},
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				EnvVars: []string{config.EnvDebug},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "sign",
				Usage: "Sign a message and record it in the history",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "message",
						Aliases:  []string{"m"},
						Usage:    "Message to sign (at most 300 characters)",
						Required: true,
					},
				},
				Action: signCommand,
			},
			{
				Name:  "verify",
				Usage: "Ask the signing service whether a signature is valid for a message",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "message",
						Aliases:  []string{"m"},
						Usage:    "Message that was signed",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "signature",
						Aliases:  []string{"s"},
						Usage:    "Signature to check",
						Required: true,
					},
				},
				Action: verifyCommand,
			},
			{
				Name:   "history",
				Usage:  "Print the signing history",
				Action: historyCommand,
			},
			{
				Name:   "clear-history",
				Usage:  "Delete the signing history",
				Action: clearHistoryCommand,
			},
			{
				Name:   "interactive",
				Usage:  "Start an interactive signing session",
				Action: interactiveCommand,
			},
		},
	}
}

// loadConfig builds and validates the client config from global flags
func loadConfig(c *cli.Context) (*config.ClientConfig, error) {
	cfg := config.NewDefaultClientConfig(c.String("data-path"))
	cfg.SignerURL = c.String("signer-url")
	cfg.Timeout = c.Duration("timeout")
	cfg.RateLimit = c.Float64("rate-limit")
	cfg.PersistenceType = persistence.Type(c.String("persistence-type"))
	cfg.HistorySlot = c.String("history-slot")
	cfg.Redis = config.RedisConfig{
		Address:   c.String("redis-address"),
		Password:  c.String("redis-password"),
		DB:        c.Int("redis-db"),
		KeyPrefix: c.String("redis-key-prefix"),
	}
	cfg.Debug = c.Bool("debug")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
