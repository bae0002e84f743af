package services

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/hopefoundation/backend/internal/config"
	"github.com/lib/pq"
)

// CodeGenerator produces the three identifier kinds attached to
// donation and fee records: transaction IDs, receipt codes and
// human-readable reference codes. All randomness comes from
// crypto/rand; uniqueness is enforced by database constraints with a
// bounded regenerate-and-retry in the callers.
type CodeGenerator struct {
	config *config.DonationConfig
}

func NewCodeGenerator(cfg *config.DonationConfig) *CodeGenerator {
	return &CodeGenerator{config: cfg}
}

// TransactionID returns TXN + unix seconds + a 5-digit random suffix
func (g *CodeGenerator) TransactionID() string {
	return fmt.Sprintf("TXN%d%05d", time.Now().Unix(), randomInt(100000))
}

// ReceiptCode returns an uppercase alphanumeric code of the configured
// length, used for public unauthenticated fee lookups
func (g *CodeGenerator) ReceiptCode() string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	code := make([]byte, g.config.ReceiptCodeLength)
	charsetLen := big.NewInt(int64(len(charset)))

	for i := range code {
		n, _ := rand.Int(rand.Reader, charsetLen)
		code[i] = charset[n.Int64()]
	}

	return string(code)
}

// FeeReference builds <PREFIX>-<YEAR>-<SEQ:6> from an allocated sequence
func (g *CodeGenerator) FeeReference(year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%06d", g.config.FeePrefix, year, seq)
}

// DonationReference builds the donation reference code. Donations tagged
// with a project get <PREFIX>-<PROJECTCODE3>-<MMDD>-<RAND4>; untagged
// donations fall back to the sequential year form.
func (g *CodeGenerator) DonationReference(project string, now time.Time, seq int64) string {
	if project == "" {
		return fmt.Sprintf("%s-%d-%06d", g.config.DonationPrefix, now.Year(), seq)
	}
	return fmt.Sprintf("%s-%s-%s-%04d",
		g.config.DonationPrefix, projectCode(project), now.Format("0102"), randomInt(10000))
}

// projectCode derives a 3-letter code from a project tag, e.g.
// "water-access" -> "WAT"
func projectCode(project string) string {
	letters := make([]byte, 0, 3)
	for i := 0; i < len(project) && len(letters) < 3; i++ {
		c := project[i]
		if c >= 'a' && c <= 'z' {
			letters = append(letters, c-'a'+'A')
		} else if c >= 'A' && c <= 'Z' {
			letters = append(letters, c)
		}
	}
	for len(letters) < 3 {
		letters = append(letters, 'X')
	}
	return string(letters)
}

func randomInt(max int64) int64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(max))
	return n.Int64()
}

// NextSequence allocates the next per-(type, year) ordinal inside the
// caller's transaction. The upsert increments the counter row
// atomically, so concurrent submissions in the same bucket can never
// observe the same value; the allocation only becomes visible to other
// readers once the surrounding insert commits.
func NextSequence(tx *sql.Tx, recordType string, year int) (int64, error) {
	var seq int64
	err := tx.QueryRow(`
		INSERT INTO sequence_counters (record_type, year, seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (record_type, year)
		DO UPDATE SET seq = sequence_counters.seq + 1
		RETURNING seq
	`, recordType, year).Scan(&seq)

	if err != nil {
		return 0, fmt.Errorf("failed to allocate sequence for %s/%d: %w", recordType, year, err)
	}

	return seq, nil
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation on one of the generated code columns
func IsUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	if err != nil && strings.Contains(err.Error(), "duplicate key") {
		return true
	}
	return false
}
