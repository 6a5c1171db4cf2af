package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/forgo/vidshare/api/internal/config"
	"github.com/forgo/vidshare/api/pkg/jwt"
)

func main() {
	accountID := flag.String("account", "", "Account record id, e.g. account:abc123")
	handle := flag.String("handle", "", "Handle embedded in the access token")
	contact := flag.String("contact", "", "Contact address embedded in the access token")
	displayName := flag.String("name", "", "Display name embedded in the access token")
	expiry := flag.Duration("exp", 0, "Access token lifetime (default: ACCESS_TOKEN_EXPIRY)")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	if *accountID == "" {
		fmt.Fprintln(os.Stderr, "Error: -account is required")
		flag.Usage()
		os.Exit(2)
	}

	// Secrets come from the same environment the server reads
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Tokens.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *expiry > 0 {
		cfg.Tokens.AccessExpiry = *expiry
	}

	jwtService, err := jwt.NewService(jwt.Config{
		AccessSecret:  cfg.Tokens.AccessSecret,
		AccessExpiry:  cfg.Tokens.AccessExpiry,
		RefreshSecret: cfg.Tokens.RefreshSecret,
		RefreshExpiry: cfg.Tokens.RefreshExpiry,
		Issuer:        cfg.Tokens.Issuer,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating token service: %v\n", err)
		os.Exit(1)
	}

	token, err := jwtService.IssueAccessToken(jwt.AccessIdentity{
		AccountID:      *accountID,
		Handle:         *handle,
		ContactAddress: *contact,
		DisplayName:    *displayName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}

	if *outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]any{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   int(cfg.Tokens.AccessExpiry.Seconds()),
			"account_id":   *accountID,
		})
		return
	}

	fmt.Println("Access Token")
	fmt.Println("============")
	fmt.Printf("Account:  %s\n", *accountID)
	fmt.Printf("Expires:  %s\n", time.Now().Add(cfg.Tokens.AccessExpiry).Format(time.RFC3339))
	fmt.Println()
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  curl -H 'Authorization: Bearer %s...' http://localhost:%s/api/v1/users/current-user\n", token[:24], cfg.Server.Port)
}
