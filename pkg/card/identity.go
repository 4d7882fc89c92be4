package card

import (
	"fmt"

	"github.com/google/uuid"
)

// GET USER DATA response layout:
//
//	bytes [0,16)  account UUID, big endian halves
//	bytes [16,32) card UUID, big endian halves
//	bytes [32,)   cardholder full name, UTF-8
const identityHeaderLength = 32

// Identity is the card's stored owner record.
type Identity struct {
	AccountID uuid.UUID
	CardID    uuid.UUID
	FullName  string
}

// ParseIdentity decodes the fixed-layout identity buffer. Buffers shorter
// than the two UUIDs are rejected before any UUID decoding is attempted.
func ParseIdentity(buf []byte) (Identity, error) {
	if len(buf) < identityHeaderLength {
		return Identity{}, fmt.Errorf("identity buffer too short: %d bytes, need at least %d", len(buf), identityHeaderLength)
	}

	accountID, err := uuid.FromBytes(buf[0:16])
	if err != nil {
		return Identity{}, fmt.Errorf("decoding account id: %w", err)
	}

	cardID, err := uuid.FromBytes(buf[16:32])
	if err != nil {
		return Identity{}, fmt.Errorf("decoding card id: %w", err)
	}

	return Identity{
		AccountID: accountID,
		CardID:    cardID,
		FullName:  string(buf[identityHeaderLength:]),
	}, nil
}

// String returns a readable representation of the identity.
func (i Identity) String() string {
	return fmt.Sprintf("%s (account %s, card %s)", i.FullName, i.AccountID, i.CardID)
}
