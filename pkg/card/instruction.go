package card

// Impala applet instruction set. All commands are dispatched on the
// interindustry class byte 0x00.
const (
	CLA_IMPALA byte = 0x00

	INS_GET_BALANCE     byte = 0x04
	INS_GET_RSA_PUB_KEY byte = 0x07
	INS_VERIFY_PIN      byte = 0x18
	INS_UPDATE_USER_PIN byte = 0x19
	INS_GET_USER_DATA   byte = 0x1E
	INS_GET_CARD_NONCE  byte = 0x23
	INS_GET_EC_PUB_KEY  byte = 0x24
	INS_SIGN_AUTH       byte = 0x25
	INS_IS_CARD_ALIVE   byte = 0x2E
	INS_GET_VERSION     byte = 0x64
)

// P2 values selecting which PIN a VERIFY PIN command targets.
const (
	P2_MASTER_PIN byte = 0x81
	P2_USER_PIN   byte = 0x82
)
