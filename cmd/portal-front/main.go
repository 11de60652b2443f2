package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/homeshine/portal-front/internal"
	"github.com/homeshine/portal-front/internal/config"
	"github.com/homeshine/portal-front/internal/crypto"
	"github.com/homeshine/portal-front/internal/log"
)

var BuildVersion = "dev"

func generateDefaultConfig(path string) error {
	defaultConfig := map[string]any{
		"version": "v1",
		"gateway": map[string]any{
			"addr":           ":8080",
			"portalBaseUrl":  "https://portal.homeshine.example",
			"backendBaseUrl": "https://api.homeshine.example",
			"allowedOrigins": []string{"https://portal.homeshine.example"},
			"storage":        "memory",
			"auth": map[string]any{
				"googleClientId":      map[string]string{"$env": "GOOGLE_CLIENT_ID"},
				"googleClientSecret":  map[string]string{"$env": "GOOGLE_CLIENT_SECRET"},
				"customerRedirectUri": "https://portal.homeshine.example/customers/auth/google/callback",
				"managerRedirectUri":  "https://portal.homeshine.example/managers/auth/google/callback",
				"cookieSigningKey":    map[string]string{"$env": "COOKIE_SIGNING_KEY"},
				"encryptionKey":       map[string]string{"$env": "ENCRYPTION_KEY"},
				"adminCookieTtl":      "12h",
			},
		},
	}

	data, err := json.MarshalIndent(defaultConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func main() {
	conf := flag.String("config", "", "path to config file (required)")
	version := flag.Bool("version", false, "print version and exit")
	help := flag.Bool("help", false, "print help and exit")
	configInit := flag.String("config-init", "", "generate default config file at specified path")
	validate := flag.Bool("validate", false, "validate config file and exit")
	hashToken := flag.String("hash-admin-token", "", "print the bcrypt hash of an admin token and exit")
	flag.Parse()

	if *help {
		flag.Usage()
		return
	}
	if *version {
		fmt.Println(BuildVersion)
		return
	}
	if *hashToken != "" {
		hash, err := crypto.HashAdminToken(*hashToken)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to hash token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(hash))
		return
	}
	if *configInit != "" {
		if err := generateDefaultConfig(*configInit); err != nil {
			log.LogError("Failed to generate config: %v", err)
			os.Exit(1)
		}
		fmt.Printf("Generated default config at: %s\n", *configInit)
		return
	}

	if *conf == "" {
		fmt.Fprintf(os.Stderr, "Error: -config flag is required\n")
		fmt.Fprintf(os.Stderr, "Run with -help for usage information\n")
		os.Exit(1)
	}

	cfg, err := config.Load(*conf)
	if err != nil {
		log.LogError("Failed to load config: %v", err)
		os.Exit(1)
	}

	if *validate {
		fmt.Printf("Config OK: %s\n", *conf)
		return
	}

	log.LogInfoWithFields("main", "Starting portal-front", map[string]any{
		"version": BuildVersion,
		"config":  *conf,
	})

	ctx := context.Background()
	app, err := internal.NewPortalFront(ctx, cfg)
	if err != nil {
		log.LogError("Failed to create login gateway: %v", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		log.LogError("Failed to start server: %v", err)
		os.Exit(1)
	}
}
