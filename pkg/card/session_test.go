package card

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// scriptedChannel is a bibo.Channel replaying canned responses, recording
// every command it is asked to transmit.
type scriptedChannel struct {
	responses [][]byte
	sent      [][]byte
	transport error // returned instead of a response when set
}

func (c *scriptedChannel) Transceive(cmd []byte) ([]byte, error) {
	c.sent = append(c.sent, cmd)
	if c.transport != nil {
		return nil, c.transport
	}
	if len(c.responses) == 0 {
		return nil, fmt.Errorf("no scripted response for command % X", cmd)
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}

func (c *scriptedChannel) Close() error { return nil }

func respond(t *testing.T, dataHex string, sw StatusWord) []byte {
	t.Helper()
	data := mustHex(t, dataHex)
	return append(data, sw.SW1(), sw.SW2())
}

func TestSession_ReadIdentity(t *testing.T) {
	payload := "000102030405060708090A0B0C0D0E0F" +
		"101112131415161718191A1B1C1D1E1F" +
		"4164612043617264" // "Ada Card"
	ch := &scriptedChannel{responses: [][]byte{respond(t, payload, SW_OK)}}

	identity, err := NewSession(ch).ReadIdentity()
	if err != nil {
		t.Fatalf("ReadIdentity failed: %v", err)
	}
	if identity.FullName != "Ada Card" {
		t.Errorf("FullName = %q, want %q", identity.FullName, "Ada Card")
	}

	wantCmd := mustHex(t, "001E000000")
	if diff := cmp.Diff(wantCmd, ch.sent[0]); diff != "" {
		t.Errorf("command mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_ReadIdentity_ShortBuffer(t *testing.T) {
	ch := &scriptedChannel{responses: [][]byte{respond(t, "0001020304", SW_OK)}}
	if _, err := NewSession(ch).ReadIdentity(); err == nil {
		t.Error("expected short identity buffer to fail")
	}
}

func TestSession_SignChallenge(t *testing.T) {
	// Minimal well-formed DER ECDSA signature: SEQUENCE { INTEGER 1, INTEGER 2 }.
	ch := &scriptedChannel{responses: [][]byte{respond(t, "3006020101020102", SW_OK)}}

	signed, err := NewSession(ch).SignChallenge(0x65001122)
	if err != nil {
		t.Fatalf("SignChallenge failed: %v", err)
	}
	if signed.Timestamp != 0x65001122 {
		t.Errorf("Timestamp = %X, want 65001122", signed.Timestamp)
	}
	if diff := cmp.Diff(mustHex(t, "3006020101020102"), signed.Signature); diff != "" {
		t.Errorf("signature mismatch (-want +got):\n%s", diff)
	}

	// Timestamp travels as 8 big-endian bytes behind the header and Lc.
	wantCmd := mustHex(t, "0025000008 0000000065001122 00")
	if diff := cmp.Diff(wantCmd, ch.sent[0]); diff != "" {
		t.Errorf("command mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_SignChallenge_MalformedDER(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not a sequence", "0206020101020102"},
		{"one integer only", "3003020101"},
		{"raw bytes", "DEADBEEF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := &scriptedChannel{responses: [][]byte{respond(t, tt.data, SW_OK)}}
			if _, err := NewSession(ch).SignChallenge(1700000000); err == nil {
				t.Error("expected malformed signature to fail")
			}
		})
	}
}

func TestSession_ReadNonce(t *testing.T) {
	// 0x01020304 little endian on the wire.
	ch := &scriptedChannel{responses: [][]byte{respond(t, "04030201", SW_OK)}}

	nonce, err := NewSession(ch).ReadNonce()
	if err != nil {
		t.Fatalf("ReadNonce failed: %v", err)
	}
	if nonce != 0x01020304 {
		t.Errorf("nonce = %08X, want 01020304", nonce)
	}
}

func TestSession_ReadNonce_WrongLength(t *testing.T) {
	ch := &scriptedChannel{responses: [][]byte{respond(t, "0403", SW_OK)}}
	if _, err := NewSession(ch).ReadNonce(); err == nil {
		t.Error("expected 2-byte nonce to fail")
	}
}

func TestSession_ReadBalance(t *testing.T) {
	ch := &scriptedChannel{responses: [][]byte{respond(t, "00000000000003E8", SW_OK)}}

	balance, err := NewSession(ch).ReadBalance()
	if err != nil {
		t.Fatalf("ReadBalance failed: %v", err)
	}
	if balance != 1000 {
		t.Errorf("balance = %d, want 1000", balance)
	}
}

func TestSession_VerifyPIN(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		ch := &scriptedChannel{responses: [][]byte{respond(t, "", SW_OK)}}
		if err := NewSession(ch).VerifyPIN([]byte("1234"), PinUser); err != nil {
			t.Fatalf("VerifyPIN failed: %v", err)
		}
		if diff := cmp.Diff(mustHex(t, "0018008204 31323334"), ch.sent[0]); diff != "" {
			t.Errorf("command mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("master pin selects P2 81", func(t *testing.T) {
		ch := &scriptedChannel{responses: [][]byte{respond(t, "", SW_OK)}}
		if err := NewSession(ch).VerifyPIN([]byte("1234"), PinMaster); err != nil {
			t.Fatalf("VerifyPIN failed: %v", err)
		}
		if ch.sent[0][3] != P2_MASTER_PIN {
			t.Errorf("P2 = %02X, want %02X", ch.sent[0][3], P2_MASTER_PIN)
		}
	})

	t.Run("rejected with tries remaining", func(t *testing.T) {
		ch := &scriptedChannel{responses: [][]byte{respond(t, "", SW_PIN_FAILED+2)}}
		err := NewSession(ch).VerifyPIN([]byte("0000"), PinUser)

		var cardErr *Error
		if !errors.As(err, &cardErr) {
			t.Fatalf("expected *Error, got %v", err)
		}
		if cardErr.Kind != PinFailure || cardErr.TriesRemaining != 2 {
			t.Errorf("got %s with %d tries, want pin failure with 2", cardErr.Kind, cardErr.TriesRemaining)
		}
	})
}

func TestSession_TerminalOutcomes(t *testing.T) {
	t.Run("tag lost", func(t *testing.T) {
		ch := &scriptedChannel{responses: [][]byte{respond(t, "", SW_TAG_LOST)}}
		err := NewSession(ch).Ping()

		var cardErr *Error
		if !errors.As(err, &cardErr) || cardErr.Kind != TagLost {
			t.Fatalf("expected tag lost, got %v", err)
		}
		if !cardErr.Terminal() {
			t.Error("tag lost must be terminal")
		}
	})

	t.Run("terminated card", func(t *testing.T) {
		ch := &scriptedChannel{responses: [][]byte{respond(t, "", SW_CARD_TERMINATED)}}
		err := NewSession(ch).Ping()

		var cardErr *Error
		if !errors.As(err, &cardErr) || cardErr.Kind != CardTerminated {
			t.Fatalf("expected card terminated, got %v", err)
		}
	})
}

func TestSession_TransportFailure(t *testing.T) {
	ch := &scriptedChannel{transport: errors.New("tag moved out of field")}
	_, err := NewSession(ch).ReadIdentity()

	var cardErr *Error
	if errors.As(err, &cardErr) {
		t.Fatalf("transport failure must not classify as a card outcome: %v", err)
	}
	if err == nil {
		t.Fatal("expected transport failure to surface")
	}
}
