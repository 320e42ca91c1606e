// gen-jwt prints an access and refresh token for a user id, signed with JWT_SECRET.
// Run from project root: go run ./scripts/gen-jwt -user 1
package main

import (
	"flag"
	"fmt"
	"os"

	"todoapp/internal/config"
	"todoapp/internal/token"

	"github.com/joho/godotenv"
)

func main() {
	userID := flag.Uint("user", 1, "user id to put in the subject claim")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Config failed:", err)
		os.Exit(1)
	}
	if *userID == 0 {
		fmt.Fprintln(os.Stderr, "-user must be a positive id")
		os.Exit(2)
	}

	pair, err := token.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, nil).Issue(*userID)
	if err != nil {
		panic(err)
	}

	fmt.Println("access: ", pair.AccessToken)
	fmt.Println("refresh:", pair.RefreshToken)
}
