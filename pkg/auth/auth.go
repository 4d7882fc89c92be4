/*
Package auth orchestrates the card-present authentication pipeline: read the
card's identity, have the card sign a timestamp challenge, exchange the
derived credential for a refresh token and a temporal token at the bridge,
and hand the resulting pair to the credential store.

Any card or framing error aborts the pipeline before a single network call
is made, so a partial credential is never submitted. Each network step fails
distinctly, letting the caller tell "card rejected" from "server rejected"
from "unreachable".
*/
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/payala/impala-go/pkg/bridge"
	"github.com/payala/impala-go/pkg/card"
)

// CardSession is the subset of the card session the pipeline drives.
type CardSession interface {
	ReadIdentity() (card.Identity, error)
	SignChallenge(timestamp int64) (card.SignedChallenge, error)
}

// CredentialStore receives the token pair produced by a successful login.
type CredentialStore interface {
	Save(pair bridge.TokenPair) error
}

// Authenticator runs the tap-to-tokens pipeline.
type Authenticator struct {
	Session CardSession
	Client  *bridge.Client
	Store   CredentialStore

	// Now overrides the wall clock; nil means time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// DerivePassword turns the card's challenge signature into the password
// presented to the bridge: the lowercase hex SHA-256 of the DER signature.
//
// This is a placeholder derivation inherited from the original system and is
// not a vetted credential scheme.
func DerivePassword(signature []byte) string {
	sum := sha256.Sum256(signature)
	return hex.EncodeToString(sum[:])
}

// Run executes the pipeline and returns the identity read from the card.
// On success the credential store holds the fresh token pair.
func (a *Authenticator) Run(ctx context.Context) (card.Identity, error) {
	now := a.Now
	if now == nil {
		now = time.Now
	}
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}

	identity, err := a.Session.ReadIdentity()
	if err != nil {
		return card.Identity{}, fmt.Errorf("reading card identity: %w", err)
	}
	logger.Debug("card identity read", "account", identity.AccountID)

	signed, err := a.Session.SignChallenge(now().Unix())
	if err != nil {
		return identity, fmt.Errorf("signing auth challenge: %w", err)
	}

	accountID := identity.AccountID.String()
	password := DerivePassword(signed.Signature)

	result, err := a.Client.Authenticate(ctx, accountID, password)
	if err != nil {
		return identity, fmt.Errorf("register-or-verify: %w", err)
	}
	logger.Info("bridge accepted credential", "account", accountID, "action", result.Action)

	refreshToken, err := a.Client.Login(ctx, accountID, password)
	if err != nil {
		return identity, fmt.Errorf("login exchange: %w", err)
	}

	temporalToken, validity, err := a.Client.Refresh(ctx, refreshToken)
	if err != nil {
		return identity, fmt.Errorf("token refresh: %w", err)
	}

	pair := bridge.TokenPair{
		RefreshToken:   refreshToken,
		TemporalToken:  temporalToken,
		TemporalExpiry: now().Add(validity),
	}
	if err := a.Store.Save(pair); err != nil {
		return identity, fmt.Errorf("storing credentials: %w", err)
	}

	logger.Info("authentication pipeline complete", "account", accountID,
		"temporal_expiry", pair.TemporalExpiry)
	return identity, nil
}
