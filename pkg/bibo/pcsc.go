package bibo

import (
	"fmt"

	"github.com/ebfe/scard"
)

// PCSC is a Channel backed by a card presented on a PC/SC reader.
type PCSC struct {
	ctx    *scard.Context
	card   *scard.Card
	reader string
}

var _ Channel = (*PCSC)(nil)

// Connect establishes a PC/SC context and connects to the card on the first
// available reader. The caller owns the returned channel and must Close it.
func Connect() (*PCSC, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("establishing PC/SC context: %w", err)
	}

	readers, err := ctx.ListReaders()
	if err != nil || len(readers) == 0 {
		_ = ctx.Release()
		if err != nil {
			return nil, fmt.Errorf("listing readers: %w", err)
		}
		return nil, fmt.Errorf("no smart card reader found")
	}

	// Force T=0 or T=1 to avoid "Parameter Incorrect" errors (Error 57)
	card, err := ctx.Connect(readers[0], scard.ShareShared, scard.ProtocolT0|scard.ProtocolT1)
	if err != nil {
		_ = ctx.Release()
		return nil, fmt.Errorf("connecting to card on %q: %w", readers[0], err)
	}

	return &PCSC{ctx: ctx, card: card, reader: readers[0]}, nil
}

// Reader returns the name of the reader the card is presented on.
func (p *PCSC) Reader() string {
	return p.reader
}

// Transceive sends one raw APDU and returns the card's raw answer.
func (p *PCSC) Transceive(cmd []byte) ([]byte, error) {
	resp, err := p.card.Transmit(cmd)
	if err != nil {
		return nil, fmt.Errorf("transmit failed: %w", err)
	}
	return resp, nil
}

// Close disconnects from the card and releases the PC/SC context.
func (p *PCSC) Close() error {
	err := p.card.Disconnect(scard.LeaveCard)
	if relErr := p.ctx.Release(); err == nil {
		err = relErr
	}
	return err
}
