// Command devtoken signs an access token for local testing against JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"stockdesk/internal/auth"
	"stockdesk/internal/config"

	"github.com/google/uuid"
)

func main() {
	id := flag.String("id", "", "principal id (random when empty)")
	name := flag.String("name", "Dev User", "display name")
	role := flag.String("role", "staff", "admin, staff or warehouse")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	r, ok := auth.ParseRole(*role)
	if !ok {
		log.Fatalf("unknown role %q", *role)
	}

	pid := uuid.New()
	if *id != "" {
		if pid, err = uuid.Parse(*id); err != nil {
			log.Fatalf("invalid id: %v", err)
		}
	}

	token, err := auth.IssueToken([]byte(cfg.JWTSecret), auth.Principal{ID: pid, Name: *name, Role: r}, *ttl)
	if err != nil {
		log.Fatalf("signing token: %v", err)
	}
	fmt.Println(token)
}
