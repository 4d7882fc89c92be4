package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/payala/impala-go/pkg/auth"
	"github.com/payala/impala-go/pkg/bibo"
	"github.com/payala/impala-go/pkg/bridge"
	"github.com/payala/impala-go/pkg/card"
)

func main() {
	endpoint := flag.String("endpoint", "http://localhost:8080", "base URL of the Impala bridge service")
	pin := flag.String("pin", "", "optional user PIN to verify before authenticating")
	timeout := flag.Duration("timeout", 60*time.Second, "overall deadline for the demo")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// --- 1. Hardware Setup ---
	channel, err := bibo.Connect()
	if err != nil {
		log.Fatalf("Error connecting to card: %s", err)
	}
	defer func() {
		if err := channel.Close(); err != nil {
			log.Printf("Warning: failed to close channel: %v", err)
		}
	}()

	fmt.Printf(">> Using reader: %s\n", channel.Reader())

	// --- 2. Logic Setup ---
	session := card.NewSession(channel)
	tokens := bridge.NewTokenStore()
	registry := bridge.NewRegistry(bridge.Config{Tokens: tokens})

	client, err := registry.Get(*endpoint)
	if err != nil {
		log.Fatalf("Error building bridge client: %s", err)
	}
	defer registry.Invalidate()

	// --- 3. Execution Flow ---

	step1InspectCard(session)

	if *pin != "" {
		if !step2VerifyPIN(session, *pin) {
			return
		}
	}

	step3Authenticate(ctx, session, client, tokens)

	fmt.Println("\n>> Demo Finished")
}

// step1InspectCard pings the card and prints its version and identity.
func step1InspectCard(session *card.Session) {
	fmt.Println("\n=============================================")
	fmt.Println(" Step 1: INSPECT CARD")
	fmt.Println("=============================================")

	if err := session.Ping(); err != nil {
		log.Fatalf("Card did not answer liveness check: %v", err)
	}

	if version, err := session.ReadVersion(); err == nil {
		fmt.Printf("   Applet version: %s\n", version)
	} else {
		log.Printf("(!) Could not read applet version: %v", err)
	}

	identity, err := session.ReadIdentity()
	if err != nil {
		log.Fatalf("Could not read card identity: %v", err)
	}
	fmt.Printf("   Cardholder: %s\n", identity)

	if balance, err := session.ReadBalance(); err == nil {
		fmt.Printf("   Balance: %d\n", balance)
	}
}

// step2VerifyPIN presents the user PIN and reports remaining tries on failure.
func step2VerifyPIN(session *card.Session, pin string) bool {
	fmt.Println("\n=============================================")
	fmt.Println(" Step 2: VERIFY USER PIN")
	fmt.Println("=============================================")

	err := session.VerifyPIN([]byte(pin), card.PinUser)
	if err == nil {
		fmt.Println("   PIN accepted")
		return true
	}

	var cardErr *card.Error
	if errors.As(err, &cardErr) && cardErr.Kind == card.PinFailure {
		fmt.Printf("   PIN rejected: %d tries remaining\n", cardErr.TriesRemaining)
		return false
	}

	log.Printf("(!) PIN verification failed: %v", err)
	return false
}

// step3Authenticate runs the full tap-to-tokens pipeline.
func step3Authenticate(ctx context.Context, session *card.Session, client *bridge.Client, tokens *bridge.TokenStore) {
	fmt.Println("\n=============================================")
	fmt.Println(" Step 3: AUTHENTICATE AGAINST BRIDGE")
	fmt.Println("=============================================")

	authenticator := &auth.Authenticator{
		Session: session,
		Client:  client,
		Store:   tokens,
	}

	identity, err := authenticator.Run(ctx)
	if err != nil {
		var cardErr *card.Error
		if errors.As(err, &cardErr) {
			log.Fatalf("Card rejected the operation: %v", err)
		}
		log.Fatalf("Authentication failed: %v", err)
	}

	fmt.Printf("   Authenticated as %s\n", identity.FullName)
	if token, ok := tokens.TemporalToken(); ok {
		fmt.Printf("   Temporal token acquired (%d bytes)\n", len(token))
	}
}
