// Command devtoken prints a signed access token for local testing.  Tokens
// are normally issued by the identity service that shares JWT_SECRET with
// this server.
//
//	go run ./cmd/devtoken -user 42 -role ADMIN
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-reservation/internal/utils"
)

func main() {
	userID := flag.Uint64("user", 1, "user id placed in the sub claim")
	role := flag.String("role", utils.RoleCustomer, "role claim (CUSTOMER or ADMIN)")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logrus.Fatal("missing required env var: JWT_SECRET")
	}

	tok, err := utils.NewAccessToken(secret, *userID, *role, *ttl)
	if err != nil {
		logrus.WithError(err).Fatal("signing token")
	}
	fmt.Println(tok.Token)
}
