// cmd/gentoken issues a signed JWT for local testing.
// Usage: go run ./cmd/gentoken -role staff
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"foodie/internal/config"
	"foodie/internal/middleware"

	"github.com/google/uuid"
)

func main() {
	role := flag.String("role", middleware.RoleStaff, "customer | staff | admin")
	user := flag.String("user", "", "user id (random when empty)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}
	if *user == "" {
		*user = uuid.NewString()
	}

	tok, err := middleware.IssueToken(cfg.JWTSecret, *user, *role, time.Duration(cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign:", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
