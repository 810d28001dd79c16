// Command tokengen issues a bearer token for a tenant. The billing API does
// not manage users itself; tokens are minted by an operator or an upstream
// identity service sharing the signing secret.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pharmabill/backend/internal/infrastructure/auth"
	"github.com/pharmabill/backend/internal/infrastructure/config"
)

func main() {
	var (
		tenant   string
		user     string
		username string
		ttl      time.Duration
		asJSON   bool
	)
	flag.StringVar(&tenant, "tenant", "", "Tenant UUID (required)")
	flag.StringVar(&user, "user", "", "User UUID (default: random)")
	flag.StringVar(&username, "username", "operator", "Username embedded in the token")
	flag.DurationVar(&ttl, "ttl", 0, "Token lifetime (default: jwt.access_token_expiration)")
	flag.BoolVar(&asJSON, "json", false, "Print the token with its expiry as JSON")
	flag.Parse()

	tenantID, err := uuid.Parse(tenant)
	if err != nil {
		fail("invalid -tenant %q: %v", tenant, err)
	}
	userID := uuid.New()
	if user != "" {
		if userID, err = uuid.Parse(user); err != nil {
			fail("invalid -user %q: %v", user, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fail("failed to load configuration: %v", err)
	}

	issued, err := auth.NewJWTService(cfg.JWT).GenerateToken(auth.TokenInput{
		TenantID: tenantID,
		UserID:   userID,
		Username: username,
		TTL:      ttl,
	})
	if err != nil {
		fail("failed to issue token: %v", err)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(issued); err != nil {
			fail("failed to encode token: %v", err)
		}
		return
	}
	fmt.Println(issued.AccessToken)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "tokengen: "+format+"\n", args...)
	os.Exit(1)
}
