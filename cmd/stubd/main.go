package main

import (
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"gigachat/internal/infrastructure/logging"
	"gigachat/internal/pkg/sync/domain"
	"gigachat/internal/stubserver"
)

// stubd runs an in-memory GigaChat backend with two seeded demo accounts,
// for developing the client without the real service.
func main() {
	logging.Init(logging.Config{Level: "debug", Format: "console"})
	logger := logging.Component("stubd")
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Msg(".env file could not be loaded")
	}

	srv := stubserver.New(stubserver.WithLogger(logger))
	defer srv.Close()

	alice := srv.SeedUser(domain.Contact{Name: "Alice", PhoneNumber: "9000000001"}, "alice")
	bob := srv.SeedUser(domain.Contact{Name: "Bob", PhoneNumber: "9000000002"}, "bob")
	srv.SeedMessage(alice.ID, bob.ID, "hey, is this thing on?", time.Now().Add(-time.Hour))
	srv.SeedMessage(bob.ID, alice.ID, "loud and clear", time.Now().Add(-50*time.Minute))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Info().
		Str("addr", addr).
		Str("alice", alice.ID).
		Str("bob", bob.ID).
		Msg("stub backend listening")

	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
