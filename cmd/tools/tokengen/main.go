// Command tokengen mints an observer credential for local development.
//
// Usage:
//
//	DAYLIGHT_TOKEN_SECRET=... go run ./cmd/tools/tokengen -observer obs-demo -name "Demo Observer"
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/calebmorrow/daylight/backend/internal/auth"
)

func main() {
	observerID := flag.String("observer", "obs-demo", "observer identifier to embed in the token")
	name := flag.String("name", "", "display name to embed in the token")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	cfg, err := auth.LoadConfigFromEnv(nil)
	if err != nil {
		log.Fatalf("failed to load auth configuration: %v", err)
	}

	token, err := auth.Issue(cfg, *observerID, *name)
	if err != nil {
		log.Fatalf("failed to issue token: %v", err)
	}
	fmt.Println(token)
}
