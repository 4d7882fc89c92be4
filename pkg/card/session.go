package card

import (
	"encoding/binary"
	"fmt"

	"github.com/payala/impala-go/pkg/bibo"
)

// KeyKind selects which of the card's public keys to read.
type KeyKind int

const (
	KeyEC KeyKind = iota
	KeyRSA
)

// PinKind selects which PIN a verification targets.
type PinKind int

const (
	PinMaster PinKind = iota
	PinUser
)

func (k PinKind) p2() byte {
	if k == PinMaster {
		return P2_MASTER_PIN
	}
	return P2_USER_PIN
}

// Session drives the Impala applet over an open channel. It is stateless
// between calls and must not be shared across goroutines: one tap, one
// sequential command stream.
type Session struct {
	ch bibo.Channel
}

// NewSession wraps an already-open channel. The session does not own the
// channel; closing it remains the caller's responsibility.
func NewSession(ch bibo.Channel) *Session {
	return &Session{ch: ch}
}

// roundTrip encodes one command, transmits it, and returns the response data
// after classifying the status word. Non-success outcomes come back as *Error.
func (s *Session) roundTrip(cmd Command) ([]byte, error) {
	raw, err := cmd.Bytes()
	if err != nil {
		return nil, err
	}

	rawResp, err := s.ch.Transceive(raw)
	if err != nil {
		return nil, fmt.Errorf("transmission failed: %w", err)
	}

	resp, err := ParseResponse(rawResp)
	if err != nil {
		return nil, err
	}

	if err := Classify(resp.Status).Err(); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ReadIdentity reads the cardholder record: account id, card id, full name.
func (s *Session) ReadIdentity() (Identity, error) {
	data, err := s.roundTrip(Command{
		Class: CLA_IMPALA,
		Ins:   INS_GET_USER_DATA,
		Ne:    MaxShortLe,
	})
	if err != nil {
		return Identity{}, err
	}
	return ParseIdentity(data)
}

// ReadPublicKey reads one of the card's public keys: the uncompressed EC
// point for KeyEC, the RSA modulus for KeyRSA.
func (s *Session) ReadPublicKey(kind KeyKind) ([]byte, error) {
	ins := INS_GET_EC_PUB_KEY
	if kind == KeyRSA {
		ins = INS_GET_RSA_PUB_KEY
	}
	return s.roundTrip(Command{
		Class: CLA_IMPALA,
		Ins:   ins,
		Ne:    MaxShortLe,
	})
}

// SignChallenge asks the card to sign an authentication challenge. The
// timestamp is serialized as 8 big-endian bytes; the card signs
// accountId || timestamp with its EC key and returns a DER signature.
func (s *Session) SignChallenge(timestamp int64) (SignedChallenge, error) {
	payload := make([]byte, 8)
	binary.BigEndian.PutUint64(payload, uint64(timestamp))

	sig, err := s.roundTrip(Command{
		Class: CLA_IMPALA,
		Ins:   INS_SIGN_AUTH,
		Data:  payload,
		Ne:    MaxShortLe,
	})
	if err != nil {
		return SignedChallenge{}, err
	}

	if err := checkDERSignature(sig); err != nil {
		return SignedChallenge{}, err
	}

	return SignedChallenge{Timestamp: timestamp, Signature: sig}, nil
}

// ReadNonce fetches a fresh replay-protection nonce from the card.
func (s *Session) ReadNonce() (uint32, error) {
	data, err := s.roundTrip(Command{
		Class: CLA_IMPALA,
		Ins:   INS_GET_CARD_NONCE,
		Ne:    MaxShortLe,
	})
	if err != nil {
		return 0, err
	}
	if len(data) != 4 {
		return 0, fmt.Errorf("nonce response has %d bytes, want 4", len(data))
	}
	// The applet emits the nonce little endian.
	return binary.LittleEndian.Uint32(data), nil
}

// VerifyPIN presents a PIN to the card. On success it returns nil; on a
// wrong PIN it returns a *Error with Kind PinFailure carrying the number of
// tries remaining, so callers can surface attempts-left guidance without
// string matching.
func (s *Session) VerifyPIN(pin []byte, kind PinKind) error {
	_, err := s.roundTrip(Command{
		Class: CLA_IMPALA,
		Ins:   INS_VERIFY_PIN,
		P2:    kind.p2(),
		Data:  pin,
	})
	return err
}

// UpdateUserPIN replaces the user PIN. The card requires a prior master PIN
// verification in the same presentment window and answers with a security
// violation otherwise.
func (s *Session) UpdateUserPIN(newPIN []byte) error {
	_, err := s.roundTrip(Command{
		Class: CLA_IMPALA,
		Ins:   INS_UPDATE_USER_PIN,
		Data:  newPIN,
	})
	return err
}

// ReadBalance reads the card's stored balance, big endian.
func (s *Session) ReadBalance() (int64, error) {
	data, err := s.roundTrip(Command{
		Class: CLA_IMPALA,
		Ins:   INS_GET_BALANCE,
		Ne:    MaxShortLe,
	})
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("balance response has %d bytes, want 8", len(data))
	}
	return int64(binary.BigEndian.Uint64(data)), nil
}

// ReadVersion reads the applet version string.
func (s *Session) ReadVersion() (string, error) {
	data, err := s.roundTrip(Command{
		Class: CLA_IMPALA,
		Ins:   INS_GET_VERSION,
		Ne:    MaxShortLe,
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Ping checks that the presented card is alive. A terminated card answers
// with CardTerminated.
func (s *Session) Ping() error {
	_, err := s.roundTrip(Command{
		Class: CLA_IMPALA,
		Ins:   INS_IS_CARD_ALIVE,
		Ne:    MaxShortLe,
	})
	return err
}
