// Command gentoken signs a bearer token for local testing.
// Usage: go run ./cmd/gentoken -operator 7 -role cashier
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/config"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/middleware"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/service"
)

func main() {
	operator := flag.Int64("operator", 1, "operator id")
	username := flag.String("username", "admin", "username claim")
	role := flag.String("role", service.RoleAdmin, "cashier | supervisor | admin")
	ttl := flag.Duration("ttl", 0, "token lifetime (default JWT_EXPIRATION_HOURS)")
	flag.Parse()

	switch *role {
	case service.RoleCashier, service.RoleSupervisor, service.RoleAdmin:
	default:
		fmt.Fprintf(os.Stderr, "unknown role %q\n", *role)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}
	if *ttl <= 0 {
		*ttl = time.Duration(cfg.JWTExpirationHours) * time.Hour
	}

	tok, err := middleware.IssueToken(cfg.JWTSecret, *operator, *username, *role, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign:", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
