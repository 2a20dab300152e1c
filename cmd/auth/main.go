package main

import (
	"log"
	"os"

	"github.com/logiscore/authcore/internal/auth/app"
	"github.com/logiscore/authcore/pkg/cryptox"
)

func main() {
	// "auth genkey" prints a PKCS8 Ed25519 key for AUTH_SIGNING_KEY_FILE.
	if len(os.Args) > 1 && os.Args[1] == "genkey" {
		pem, err := cryptox.GenerateEd25519Key()
		if err != nil {
			log.Fatalf("failed to generate signing key: %v", err)
		}
		_, _ = os.Stdout.Write(pem)
		return
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
