// Command issue-token signs a watch-party token for local testing.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/pscheid92/watchsync/internal/auth"
)

func main() {
	_ = godotenv.Load()

	var (
		secret = flag.String("secret", os.Getenv("JWT_SECRET"), "HMAC secret (or set JWT_SECRET env)")
		userID = flag.Int64("user", 0, "User ID to embed in the token")
		ttl    = flag.Duration("ttl", time.Hour, "Token lifetime")
	)
	flag.Parse()

	if *secret == "" {
		log.Fatal("JWT secret required (--secret or JWT_SECRET env)")
	}
	if *userID <= 0 {
		log.Fatal("positive user ID required (--user)")
	}

	token, err := auth.NewJWTVerifier(*secret, clockwork.NewRealClock()).Sign(*userID, *ttl)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
