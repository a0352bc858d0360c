package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"teko/internal/config"
	"teko/internal/daemonrun"
)

// version is overridden at build time with -ldflags.
var version = "dev"

func main() {
	if err := run(context.Background(), os.Getenv("TEKO_CONFIG")); err != nil {
		log.Fatalf("tekod: %v", err)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, _, _, err := config.Load(strings.TrimSpace(configPath))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return daemonrun.Run(ctx, cfg, daemonrun.Options{
		LogLevel: os.Getenv("TEKO_LOG_LEVEL"),
		Version:  version,
	})
}
