package postgres

import (
	"fmt"
	"math/rand/v2"

	"github.com/oklog/ulid/v2"
)

// ULIDGenerator generates ULID primary keys and the short human-readable
// references shown to users.
type ULIDGenerator struct{}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate generates a new ULID.
func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}

// LoanReference returns a display reference like LN-482917. Uniqueness is
// enforced by the database, not here; collisions on six digits surface as a
// constraint violation and the caller retries.
func (g *ULIDGenerator) LoanReference() string {
	return fmt.Sprintf("LN-%06d", rand.IntN(900000)+100000)
}

// PaymentReference returns a display reference like TXN-583920.
func (g *ULIDGenerator) PaymentReference() string {
	return fmt.Sprintf("TXN-%06d", rand.IntN(900000)+100000)
}
