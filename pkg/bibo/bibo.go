/*
Package bibo provides the byte-in/byte-out duplex channel used to exchange
APDUs with a physically present Impala card.

A Channel has no protocol knowledge: it moves one opaque byte sequence to the
card and returns the raw byte sequence the card answers with. Framing, status
word interpretation and retries all live in higher layers.

The exchange is strictly synchronous. One physical tap yields one sequential
command stream: a Transceive call must complete (or fail on tag removal)
before the next is issued, and a Channel must not be shared across goroutines.
Contactless exchanges can block for the duration of the tap, so channel
operations belong off any latency-sensitive goroutine.
*/
package bibo

// Channel is a duplex byte transport to a presented card.
type Channel interface {
	// Transceive sends one raw command and returns the raw response.
	// An error indicates a transport failure (e.g. the tag moved out of
	// the field mid-exchange), not an in-band card error.
	Transceive(cmd []byte) ([]byte, error)

	// Close releases the underlying physical connection.
	Close() error
}
