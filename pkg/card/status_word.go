package card

import "fmt"

// Status Word logic for the Impala applet.
//
// While most status words are static 2-byte values (e.g. 0x9000), the applet
// reserves one dynamic range:
//
//	'69CX': PIN verification failed. The low nibble X carries the number of
//	        remaining tries, counting down to 0x69C0 ("no tries left").
//
// Classification extracts that nibble instead of enumerating ten cases.
// Every other status word is matched by exact value against the table below,
// and anything the applet never emits classifies as Unknown. Classification
// is total and pure: it performs no I/O and never fails.

// StatusWord represents the two-byte status trailer (SW1-SW2) returned by
// the card, big endian.
type StatusWord uint16

// NewStatusWord creates a StatusWord from its two wire bytes.
func NewStatusWord(sw1, sw2 byte) StatusWord {
	return StatusWord(uint16(sw1)<<8 | uint16(sw2))
}

// SW1 returns the first byte (high byte) of the status word.
func (sw StatusWord) SW1() byte {
	return byte(sw >> 8)
}

// SW2 returns the second byte (low byte) of the status word.
func (sw StatusWord) SW2() byte {
	return byte(sw)
}

// Status word values emitted by the Impala applet.
const (
	SW_OK StatusWord = 0x9000

	// PIN verification failures: low nibble = remaining tries.
	SW_PIN_FAILED      StatusWord = 0x69C0
	SW_PIN_FAILED_LAST StatusWord = 0x69C9

	// Some readers report a tag leaving the field as an all-zero trailer.
	SW_TAG_LOST StatusWord = 0x0000

	SW_KEY_VERIFICATION_FAILED       StatusWord = 0x0022
	SW_SIGNATURE_VERIFICATION_FAILED StatusWord = 0x0023
	SW_INSUFFICIENT_FUNDS            StatusWord = 0x6224
	SW_PARSING_RECIPIENT_FAILED      StatusWord = 0x6226
	SW_INIT_SIGNER_FAILED            StatusWord = 0x6227
	SW_WRONG_CURRENCY                StatusWord = 0x6229
	SW_EC_CARD_KEY_MISSING           StatusWord = 0x6230
	SW_WRONG_SENDER                  StatusWord = 0x6231
	SW_WRONG_RECIPIENT               StatusWord = 0x6232
	SW_SCP03_AUTH_FAILED             StatusWord = 0x6300
	SW_CARD_DATA_SIGNATURE_INVALID   StatusWord = 0x6677
	SW_CARD_DATA_NONCE_INVALID       StatusWord = 0x6678
	SW_WRONG_CARD_ID                 StatusWord = 0x6679
	SW_CRYPTO_EXCEPTION              StatusWord = 0x6683
	SW_INVALID_AES_KEY               StatusWord = 0x6684
	SW_PUB_KEY_ALREADY_SET           StatusWord = 0x6685
	SW_PRNG_ALREADY_SEEDED           StatusWord = 0x6686
	SW_CARD_TERMINATED               StatusWord = 0x6687
	SW_PIN_REQUIRED                  StatusWord = 0x6690
	SW_PIN_REJECTED                  StatusWord = 0x6691
	SW_WRONG_LENGTH                  StatusWord = 0x6700
	SW_SECURITY_STATUS_NOT_SATISFIED StatusWord = 0x6982
	SW_CONDITIONS_NOT_SATISFIED      StatusWord = 0x6985
	SW_INCORRECT_P1P2                StatusWord = 0x6A86
	SW_SET_ACCOUNT_ID_FAILED         StatusWord = 0x6C01
	SW_SET_BALANCE_FAILED            StatusWord = 0x6C02
	SW_SET_FULL_NAME_FAILED          StatusWord = 0x6C03
	SW_SET_GENDER_FAILED             StatusWord = 0x6C04
	SW_INS_NOT_SUPPORTED             StatusWord = 0x6D00
	SW_UNKNOWN_ERROR                 StatusWord = 0x6F00
)

// Kind identifies one variant of the closed outcome taxonomy.
type Kind int

const (
	Success Kind = iota
	PinFailure
	SecurityViolation
	InsufficientFunds
	CardTerminated
	WrongLength
	UnsupportedInstruction
	CryptoFailure
	TransferRejected
	CardDataCorrupt
	TagLost
	Unknown
)

var kindNames = map[Kind]string{
	Success:                "success",
	PinFailure:             "pin failure",
	SecurityViolation:      "security violation",
	InsufficientFunds:      "insufficient funds",
	CardTerminated:         "card terminated",
	WrongLength:            "wrong length",
	UnsupportedInstruction: "unsupported instruction",
	CryptoFailure:          "crypto failure",
	TransferRejected:       "transfer rejected",
	CardDataCorrupt:        "card data corrupt",
	TagLost:                "tag lost",
	Unknown:                "unknown",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Outcome is the classification of one status word: exactly one Kind, plus
// the diagnostic payload that kind carries.
type Outcome struct {
	Kind   Kind
	Status StatusWord

	// TriesRemaining is populated for PinFailure only.
	TriesRemaining int

	// Reason is populated for TransferRejected only.
	Reason string
}

var outcomeTable = map[StatusWord]Outcome{
	SW_KEY_VERIFICATION_FAILED:       {Kind: CryptoFailure},
	SW_SIGNATURE_VERIFICATION_FAILED: {Kind: CryptoFailure},
	SW_INSUFFICIENT_FUNDS:            {Kind: InsufficientFunds},
	SW_PARSING_RECIPIENT_FAILED:      {Kind: TransferRejected, Reason: "recipient unparsable"},
	SW_INIT_SIGNER_FAILED:            {Kind: CryptoFailure},
	SW_WRONG_CURRENCY:                {Kind: TransferRejected, Reason: "wrong currency"},
	SW_EC_CARD_KEY_MISSING:           {Kind: CryptoFailure},
	SW_WRONG_SENDER:                  {Kind: TransferRejected, Reason: "sender is not this card"},
	SW_WRONG_RECIPIENT:               {Kind: TransferRejected, Reason: "recipient is this card"},
	SW_SCP03_AUTH_FAILED:             {Kind: SecurityViolation},
	SW_CARD_DATA_SIGNATURE_INVALID:   {Kind: CardDataCorrupt},
	SW_CARD_DATA_NONCE_INVALID:       {Kind: CardDataCorrupt},
	SW_WRONG_CARD_ID:                 {Kind: CardDataCorrupt},
	SW_CRYPTO_EXCEPTION:              {Kind: CryptoFailure},
	SW_INVALID_AES_KEY:               {Kind: CryptoFailure},
	SW_PUB_KEY_ALREADY_SET:           {Kind: CryptoFailure},
	SW_PRNG_ALREADY_SEEDED:           {Kind: CryptoFailure},
	SW_CARD_TERMINATED:               {Kind: CardTerminated},
	SW_PIN_REQUIRED:                  {Kind: SecurityViolation},
	SW_PIN_REJECTED:                  {Kind: SecurityViolation},
	SW_WRONG_LENGTH:                  {Kind: WrongLength},
	SW_SECURITY_STATUS_NOT_SATISFIED: {Kind: SecurityViolation},
	SW_CONDITIONS_NOT_SATISFIED:      {Kind: SecurityViolation},
	SW_INCORRECT_P1P2:                {Kind: UnsupportedInstruction},
	SW_SET_ACCOUNT_ID_FAILED:         {Kind: WrongLength},
	SW_SET_BALANCE_FAILED:            {Kind: WrongLength},
	SW_SET_FULL_NAME_FAILED:          {Kind: WrongLength},
	SW_SET_GENDER_FAILED:             {Kind: WrongLength},
	SW_INS_NOT_SUPPORTED:             {Kind: UnsupportedInstruction},
	SW_TAG_LOST:                      {Kind: TagLost},
}

// Classify maps a status word to its Outcome. The mapping is total: every
// 16-bit value yields exactly one variant, with Unknown as the catch-all.
func Classify(sw StatusWord) Outcome {
	if sw == SW_OK {
		return Outcome{Kind: Success, Status: sw}
	}

	if sw >= SW_PIN_FAILED && sw <= SW_PIN_FAILED_LAST {
		return Outcome{
			Kind:           PinFailure,
			Status:         sw,
			TriesRemaining: int(sw & 0x000F),
		}
	}

	if o, ok := outcomeTable[sw]; ok {
		o.Status = sw
		return o
	}

	return Outcome{Kind: Unknown, Status: sw}
}

// Err converts the outcome to an error: nil for Success, *Error otherwise.
func (o Outcome) Err() error {
	if o.Kind == Success {
		return nil
	}
	return &Error{Outcome: o}
}

// Error is a non-success Outcome carried as a Go error. Callers branch on
// Kind (via errors.As), never on the raw status word.
type Error struct {
	Outcome
}

func (e *Error) Error() string {
	switch e.Kind {
	case PinFailure:
		return fmt.Sprintf("card error [%04X]: pin failure, %d tries remaining", uint16(e.Status), e.TriesRemaining)
	case TransferRejected:
		return fmt.Sprintf("card error [%04X]: transfer rejected: %s", uint16(e.Status), e.Reason)
	default:
		return fmt.Sprintf("card error [%04X]: %s", uint16(e.Status), e.Kind)
	}
}

// Terminal reports whether the outcome ends the presentment window: the
// session must be discarded and the card tapped again.
func (e *Error) Terminal() bool {
	return e.Kind == TagLost || e.Kind == CardTerminated
}
