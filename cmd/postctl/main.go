package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	config "github.com/maheshrc27/postpipe/configs"
	"github.com/maheshrc27/postpipe/internal/bootstrap"
	"github.com/maheshrc27/postpipe/internal/logging"
)

type globalOptions struct {
	EnvFile string `long:"env-file" default:".env" description:"Environment file loaded before the configuration"`
}

var opts globalOptions

func main() {
	parser := newParser()
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}
}

func newParser() *flags.Parser {
	parser := flags.NewParser(&opts, flags.Default)
	parser.AddCommand("start", "Generate posts for an article", "Extracts the article, generates one post per conclusion and platform, and notifies approvers.", &startCommand{})
	parser.AddCommand("schedule", "Rebuild every platform schedule", "Assigns posting slots to approved posts.", &scheduleCommand{})
	parser.AddCommand("publish", "Publish due posts", "Publishes due posts on every platform.", &publishCommand{})
	parser.AddCommand("pending", "List posts awaiting approval", "", &pendingCommand{})
	parser.AddCommand("approve", "Approve a post", "", &approvalCommand{value: "yes"})
	parser.AddCommand("reject", "Reject a post", "", &approvalCommand{value: "no"})
	parser.AddCommand("token", "Issue an API bearer token", "Signs a token with SECRET_KEY.", &tokenCommand{})
	parser.AddCommand("apikey", "Generate a random API key", "Prints a value suitable for API_KEY.", &apiKeyCommand{})
	return parser
}

func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Println("Warning: Failed to load environment variables", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logging.New(cfg.LogLevel))
	return cfg, nil
}

func buildApp(ctx context.Context) (*bootstrap.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return bootstrap.Build(ctx, cfg)
}
