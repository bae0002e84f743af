package services

import (
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hopefoundation/backend/internal/config"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func testDonationConfig() *config.DonationConfig {
	return &config.DonationConfig{
		Currency:         "USD",
		SupportedMethods: []string{"bitcoin", "ethereum", "bank_transfer", "paypal"},
		WalletAddresses: map[string]string{
			"bitcoin":  "bc1qtestaddress",
			"ethereum": "0xtestaddress",
		},
		DonationPrefix:     "DON",
		FeePrefix:          "FEE",
		ReceiptCodeLength:  10,
		CodeRetryLimit:     1,
		MaxSubmissionPerIP: 10,
		RateLimitWindow:    time.Hour,
	}
}

func TestCodeGenerator_TransactionID(t *testing.T) {
	gen := NewCodeGenerator(testDonationConfig())

	t.Run("matches expected format", func(t *testing.T) {
		id := gen.TransactionID()
		assert.Regexp(t, regexp.MustCompile(`^TXN\d{15}$`), id)
	})

	t.Run("embeds current unix time", func(t *testing.T) {
		before := time.Now().Unix()
		id := gen.TransactionID()
		after := time.Now().Unix()

		var ts int64
		var suffix int
		_, err := fmt.Sscanf(id, "TXN%10d%5d", &ts, &suffix)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, ts, before)
		assert.LessOrEqual(t, ts, after)
	})
}

func TestCodeGenerator_ReceiptCode(t *testing.T) {
	gen := NewCodeGenerator(testDonationConfig())

	t.Run("uppercase alphanumeric of configured length", func(t *testing.T) {
		code := gen.ReceiptCode()
		assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{10}$`), code)
	})

	t.Run("honours configured length", func(t *testing.T) {
		cfg := testDonationConfig()
		cfg.ReceiptCodeLength = 16
		code := NewCodeGenerator(cfg).ReceiptCode()
		assert.Len(t, code, 16)
	})

	t.Run("distinct across many draws", func(t *testing.T) {
		seen := map[string]bool{}
		for i := 0; i < 1000; i++ {
			code := gen.ReceiptCode()
			assert.False(t, seen[code], "duplicate receipt code %s", code)
			seen[code] = true
		}
	})
}

func TestCodeGenerator_FeeReference(t *testing.T) {
	gen := NewCodeGenerator(testDonationConfig())

	assert.Equal(t, "FEE-2026-000001", gen.FeeReference(2026, 1))
	assert.Equal(t, "FEE-2026-000942", gen.FeeReference(2026, 942))
	assert.Equal(t, "FEE-2027-1000000", gen.FeeReference(2027, 1000000))
}

func TestCodeGenerator_DonationReference(t *testing.T) {
	gen := NewCodeGenerator(testDonationConfig())
	now := time.Date(2026, time.March, 7, 12, 0, 0, 0, time.UTC)

	t.Run("sequential form without project", func(t *testing.T) {
		assert.Equal(t, "DON-2026-000015", gen.DonationReference("", now, 15))
	})

	t.Run("project form", func(t *testing.T) {
		ref := gen.DonationReference("water-access", now, 0)
		assert.Regexp(t, regexp.MustCompile(`^DON-WAT-0307-\d{4}$`), ref)
	})

	t.Run("short project tag is padded", func(t *testing.T) {
		ref := gen.DonationReference("ed", now, 0)
		assert.Regexp(t, regexp.MustCompile(`^DON-EDX-0307-\d{4}$`), ref)
	})

	t.Run("non letters are skipped", func(t *testing.T) {
		ref := gen.DonationReference("3d-printing", now, 0)
		assert.Regexp(t, regexp.MustCompile(`^DON-DPR-0307-\d{4}$`), ref)
	})
}

func TestNextSequence(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	t.Run("returns the upserted counter value", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO sequence_counters").
			WithArgs("donation", 2026).
			WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(42))
		mock.ExpectCommit()

		tx, err := db.Begin()
		assert.NoError(t, err)

		seq, err := NextSequence(tx, "donation", 2026)
		assert.NoError(t, err)
		assert.Equal(t, int64(42), seq)

		assert.NoError(t, tx.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates query errors", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO sequence_counters").
			WithArgs("fee", 2026).
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		tx, err := db.Begin()
		assert.NoError(t, err)

		_, err = NextSequence(tx, "fee", 2026)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "fee/2026")

		tx.Rollback()
	})
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("connection refused")))
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.True(t, IsUniqueViolation(errors.New(`pq: duplicate key value violates unique constraint "fees_receipt_code_key"`)))
}

func TestCodeGenerator_ConcurrentDraws(t *testing.T) {
	gen := NewCodeGenerator(testDonationConfig())

	var mu sync.Mutex
	seen := map[string]bool{}
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code := gen.ReceiptCode()
			mu.Lock()
			defer mu.Unlock()
			seen[code] = true
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 50)
}
