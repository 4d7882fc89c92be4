package card

import (
	"fmt"
	"strings"

	"github.com/moov-io/bertlv"
)

// SignedChallenge is the card's answer to a SIGN AUTH command: an ECDSA
// signature over accountId || timestamp, DER encoded.
type SignedChallenge struct {
	Timestamp int64  // unix seconds, as serialized into the command payload
	Signature []byte // DER-encoded ECDSA signature
}

// checkDERSignature verifies that the card returned a structurally valid DER
// ECDSA signature: one SEQUENCE holding exactly two INTEGERs (r, s). The
// values are not checked against a key here; structure only, so a truncated
// contactless read fails before the signature is ever submitted upstream.
func checkDERSignature(sig []byte) error {
	packets, err := bertlv.Decode(sig)
	if err != nil {
		return fmt.Errorf("signature is not valid DER: %w", err)
	}
	if len(packets) != 1 || !strings.EqualFold(packets[0].Tag, "30") {
		return fmt.Errorf("signature is not a single DER sequence")
	}

	seq := packets[0].TLVs
	if len(seq) != 2 || !strings.EqualFold(seq[0].Tag, "02") || !strings.EqualFold(seq[1].Tag, "02") {
		return fmt.Errorf("signature sequence does not hold two integers")
	}

	return nil
}
