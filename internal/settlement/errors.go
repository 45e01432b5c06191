package settlement

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidLineItem        = errors.New("invalid_line_item")
	ErrInvalidDiscount        = errors.New("invalid_discount")
	ErrInvalidSettlementInput = errors.New("invalid_settlement_input")
	ErrAmbiguousCreditNote    = errors.New("ambiguous_credit_note_representation")
)

func invalidLineItem(index int, field string) error {
	return fmt.Errorf("line %d: %s: %w", index, field, ErrInvalidLineItem)
}

func invalidSettlementInput(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrInvalidSettlementInput)
}

func ambiguousCreditNote(id string) error {
	return fmt.Errorf("credit note %s: %w", id, ErrAmbiguousCreditNote)
}
