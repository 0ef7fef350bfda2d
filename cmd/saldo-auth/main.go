// Command saldo-auth runs the Google consent flow once and writes the token
// file that `saldo connect -credential <file>` expects.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"saldo/internal/cli"
	"saldo/internal/remote/drive"
)

func main() {
	cli.LoadEnvFile()

	out := flag.String("o", envOr("SALDO_OAUTH_TOKEN_FILE", "token.json"), "token file to write")
	port := flag.String("port", envOr("SALDO_OAUTH_REDIRECT_PORT", "8085"), "loopback port registered as redirect URI")
	timeout := flag.Duration("timeout", 5*time.Minute, "how long to wait for consent")
	flag.Parse()

	logger := cli.SetupLogger(os.Getenv("SALDO_LOG_LEVEL"), os.Stderr)

	cfg, err := drive.LoadOAuthConfig(os.Getenv("SALDO_GOOGLE_OAUTH_CLIENT_JSON"), os.Getenv("SALDO_GOOGLE_OAUTH_CLIENT_FILE"))
	if err != nil {
		logger.Error("OAuth client configuration", "error", err)
		fmt.Fprintln(os.Stderr, "set SALDO_GOOGLE_OAUTH_CLIENT_JSON or SALDO_GOOGLE_OAUTH_CLIENT_FILE")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	tok, err := drive.Consent(ctx, cfg, *port, func(url string) {
		fmt.Printf("Open this URL to authorize:\n%s\n", url)
	})
	if err != nil {
		logger.Error("Authorization failed", "error", err)
		os.Exit(1)
	}
	if err := drive.SaveToken(*out, tok); err != nil {
		logger.Error("Saving token failed", "error", err, "path", *out)
		os.Exit(1)
	}
	fmt.Printf("Saved token to %s\n", *out)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
