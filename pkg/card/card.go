/*
Package card implements the APDU protocol spoken by the Impala applet.

This package provides the building blocks for one physical presentment
window: a short-form APDU codec (Command/Response), a total classification
of the applet's status words into a closed Outcome taxonomy, and a Session
that exposes the applet's identity, key, signature, nonce and PIN operations
as typed calls over an open bibo.Channel.

# Fundamentals

The communication with the card is strictly synchronous:
 1. The terminal sends a Command APDU (Header + Optional Body).
 2. The card processes it and returns a Response APDU (Optional Body + Trailer SW1/SW2).

# Status Words

Every response ends with a 2-byte Status Word (SW). Exactly one value,
0x9000, indicates success. The applet encodes PIN verification failures in
the contiguous range 0x69C0-0x69C9, where the low nibble carries the number
of remaining tries. Every other value maps deterministically onto one error
kind; values the applet never emits classify as Unknown rather than failing.

# Sessions

A Session is stateless between calls: there is no handshake, and each
operation is a self-contained command/response round trip. A TagLost or
CardTerminated outcome is terminal for the session; the card must be tapped
again and a new channel opened.

# Usage Example

	session := card.NewSession(channel)

	identity, err := session.ReadIdentity()
	if err != nil {
	    var cardErr *card.Error
	    if errors.As(err, &cardErr) && cardErr.Kind == card.TagLost {
	        // card left the field: discard the session, ask for a new tap
	    }
	    return err
	}

	signed, err := session.SignChallenge(time.Now().Unix())
	if err != nil {
	    return err
	}
	fmt.Printf("account %s signed challenge at %d\n", identity.AccountID, signed.Timestamp)
*/
package card
