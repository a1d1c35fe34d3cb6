package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/config"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/service"
)

// issue-token mints a candidate JWT against the configured secret. It is a
// development stand-in for the identity provider.
func main() {
	var userID, name string
	flag.StringVar(&userID, "user", "", "User ID to embed in the token (required)")
	flag.StringVar(&name, "name", "", "Display name to embed in the token")
	flag.Parse()

	if userID == "" {
		flag.Usage()
		log.Fatal("-user is required")
	}

	cfg := config.Load()
	authService := service.NewAuthService(cfg)

	token, err := authService.GenerateToken(userID, name)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}

	fmt.Println(token)
}
