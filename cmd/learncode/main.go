package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"learncode/internal/cli/config"
	"learncode/internal/cli/repl"
	"learncode/internal/client"
	"learncode/internal/platform/logger"
	"learncode/internal/session"

	"go.uber.org/zap"
)

const defaultConfigPath = "configs/learncode.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	baseURL := flag.String("base", "", "Override API base URL")
	token := flag.String("token", "", "Sign in with this token before starting")
	statePath := flag.String("state", "", "Override credential file path")
	debug := flag.Bool("debug", false, "Write debug logs to stderr")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *statePath != "" {
		cfg.CredentialPath = *statePath
	}
	if *debug {
		cfg.Debug = true
	}
	config.ApplyDefaults(&cfg, session.DefaultCredentialPath())

	log := zap.NewNop()
	if cfg.Debug {
		if log, err = logger.New(logger.Config{Level: "debug", Format: "console", Output: "stderr"}); err != nil {
			fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
			os.Exit(1)
		}
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	api := client.New(cfg.BaseURL, cfg.Timeout, nil)
	sess := session.New(session.NewFileStore(cfg.CredentialPath), api)
	api.SetTokenProvider(sess.Token)

	if *token != "" {
		if _, err := sess.Login(ctx, *token); err != nil {
			fmt.Fprintf(os.Stderr, "sign in with -token failed: %v\n", err)
		}
	}

	if err := repl.New(cfg, api, sess, log).Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
