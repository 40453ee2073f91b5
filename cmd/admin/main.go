package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/elskow/portfolio/internal/server"
)

const usage = `usage: admin <command> [flags]

commands:
  create-user  -username NAME [-email EMAIL] [-admin=true]
  unlock       -username NAME
  reset-mfa    -username NAME

create-user reads the password from PORTFOLIO_ADMIN_PASSWORD or prompts for it.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	_ = godotenv.Load()
	if os.Getenv("APP_ENV") == "" {
		os.Setenv("APP_ENV", server.EnvDevelopment)
	}

	logger, err := server.NewLogger(os.Getenv("APP_ENV"))
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := run(os.Args[1], os.Args[2:], logger); err != nil {
		logger.Error("admin command failed", zap.String("command", os.Args[1]), zap.Error(err))
		os.Exit(1)
	}
}

func run(command string, args []string, logger *zap.Logger) error {
	switch command {
	case "create-user", "unlock", "reset-mfa":
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}

	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	username := fs.String("username", "", "account username")
	email := fs.String("email", "", "account email (defaults to <username>@localhost)")
	isAdmin := fs.Bool("admin", true, "grant admin access")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return fmt.Errorf("-username is required")
	}

	cfg, err := server.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cli, err := newCommands(cfg, logger)
	if err != nil {
		return err
	}
	defer cli.shutdown()

	switch command {
	case "create-user":
		password, err := readPassword(os.Stdin, os.Stdout)
		if err != nil {
			return err
		}
		return cli.createUser(*username, *email, password, *isAdmin)
	case "unlock":
		return cli.unlock(*username)
	default:
		return cli.resetMFA(*username)
	}
}
