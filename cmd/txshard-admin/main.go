// Command txshard-admin serves the read-only snapshot API for runs handed
// to adminapi.Server.PublishRun. It starts with no published runs: neither
// this command nor txshard calls PublishRun.
package main

import (
	"log"
	"os"

	"github.com/terminal-bench/txshard/internal/adminapi"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8090"
	}

	secret := os.Getenv("ADMIN_JWT_SECRET")
	if secret == "" {
		log.Fatal("ADMIN_JWT_SECRET must be set")
	}

	server := adminapi.New(secret)
	log.Printf("txshard-admin starting on port %s", port)
	if err := server.Run(":" + port); err != nil {
		log.Fatalf("admin server exited: %v", err)
	}
}
