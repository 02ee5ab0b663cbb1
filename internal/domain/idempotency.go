package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// IdempotencyRecord stores the result of a payment that already succeeded,
// so a replayed key returns the original outstanding balance instead of
// re-applying the payment.
type IdempotencyRecord struct {
	Key           string
	ResultBalance decimal.Decimal
	CreatedAt     time.Time
}

type IdempotencyRepository interface {
	Find(key string) (*IdempotencyRecord, error)
}

// DeriveIdempotencyKey builds a deterministic key from the settlement
// parameters and a caller- or coordinator-supplied nonce. The same inputs
// always produce the same key, which is what makes the remote payment call
// safely retriable.
func DeriveIdempotencyKey(accountNumber, invoiceNumber string, amount decimal.Decimal, nonce string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%s", accountNumber, invoiceNumber, amount.String(), nonce)))
	return hex.EncodeToString(sum[:])
}
