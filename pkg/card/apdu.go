package card

import (
	"bytes"
	"fmt"
)

// APDU encoding according to ISO/IEC 7816-3, restricted to Short Length mode.
//
// COMMAND APDU (C-APDU):
//   - CLA, INS, P1, P2: mandatory 4-byte header.
//   - Lc + Data: present only when the command carries a payload.
//   - Le: expected response length, 1 byte, where 0x00 encodes 256.
//
// The Impala applet never exchanges more than a signature plus a public key
// in one response, so Extended Length encoding is deliberately unsupported.
//
// RESPONSE APDU (R-APDU):
//   - Data: variable length, empty on most error paths.
//   - SW1 SW2: mandatory 2-byte trailer, big endian.

const (
	// MaxShortLc is the maximum payload length encodable in Short Length mode.
	MaxShortLc = 255

	// MaxShortLe is the maximum expected response length in Short Length
	// mode. The value 256 is encoded as 0x00.
	MaxShortLe = 256
)

// Command represents a command APDU before encoding.
type Command struct {
	Class byte
	Ins   byte
	P1    byte
	P2    byte
	Data  []byte // command payload, possibly empty
	Ne    int    // expected response length, 0 means none
}

// Bytes encodes the Command into its short-form wire representation.
//
// A command that carries no data and expects no response encodes to a bare
// header, which the applet treats as malformed; such commands are rejected
// here, before anything reaches the card.
func (c Command) Bytes() ([]byte, error) {
	nc := len(c.Data)

	if nc == 0 && c.Ne == 0 {
		return nil, fmt.Errorf("command 0x%02X carries no data and expects no response", c.Ins)
	}
	if nc > MaxShortLc {
		return nil, fmt.Errorf("command 0x%02X data too long: %d bytes (max %d)", c.Ins, nc, MaxShortLc)
	}
	if c.Ne < 0 || c.Ne > MaxShortLe {
		return nil, fmt.Errorf("command 0x%02X expected length %d out of range (max %d)", c.Ins, c.Ne, MaxShortLe)
	}

	buf := new(bytes.Buffer)
	buf.WriteByte(c.Class)
	buf.WriteByte(c.Ins)
	buf.WriteByte(c.P1)
	buf.WriteByte(c.P2)

	if nc > 0 {
		buf.WriteByte(byte(nc))
		buf.Write(c.Data)
	}

	if c.Ne > 0 {
		if c.Ne == MaxShortLe {
			buf.WriteByte(0x00) // 0x00 represents 256
		} else {
			buf.WriteByte(byte(c.Ne))
		}
	}

	return buf.Bytes(), nil
}

// String returns a readable representation of the command meta-data.
func (c Command) String() string {
	return fmt.Sprintf("CLA: %02X, INS: %02X | P1: %02X, P2: %02X | Lc: %d | Le: %d",
		c.Class, c.Ins, c.P1, c.P2, len(c.Data), c.Ne)
}

// Response represents the reply from the card (R-APDU).
type Response struct {
	Data   []byte
	Status StatusWord
}

// ParseResponse splits raw bytes received from the card into data and status
// word. The input must contain at least the 2-byte trailer (SW1, SW2).
func ParseResponse(raw []byte) (Response, error) {
	if len(raw) < 2 {
		return Response{}, fmt.Errorf("response too short: length %d", len(raw))
	}

	trailer := len(raw) - 2
	return Response{
		Data:   raw[:trailer],
		Status: NewStatusWord(raw[trailer], raw[trailer+1]),
	}, nil
}

// String returns a readable representation of the response.
func (r Response) String() string {
	return fmt.Sprintf("Data (%d bytes) | Status: %04X", len(r.Data), uint16(r.Status))
}
