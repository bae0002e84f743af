package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/hopefoundation/backend/internal/audit"
	"github.com/hopefoundation/backend/internal/config"
	"github.com/hopefoundation/backend/internal/models"
	"github.com/hopefoundation/backend/internal/notify"
)

type FeeService struct {
	db        *sql.DB
	redis     *redis.Client
	config    *config.DonationConfig
	codes     *CodeGenerator
	discord   *notify.DiscordNotifier
	email     *notify.EmailNotifier
	audit     *audit.AuditLogger
	validator *ValidationHelper
}

// FeeRequest is the fee submission payload
type FeeRequest struct {
	PayerName     string  `json:"payerName" validate:"required,min=2,max=100"`
	PayerEmail    string  `json:"payerEmail" validate:"omitempty,email"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod string  `json:"paymentMethod" validate:"required"`
}

func NewFeeService(db *sql.DB, redisClient *redis.Client, cfg *config.DonationConfig, notifyCfg *config.NotifyConfig) *FeeService {
	return &FeeService{
		db:        db,
		redis:     redisClient,
		config:    cfg,
		codes:     NewCodeGenerator(cfg),
		discord:   notify.NewDiscordNotifier(notifyCfg),
		email:     notify.NewEmailNotifier(notifyCfg),
		audit:     audit.NewAuditLogger(),
		validator: NewValidationHelper(),
	}
}

// SubmitFee handles fee submission
// @Summary Submit a fee payment
// @Description Record a fee payment and return transaction id, receipt code and reference code
// @Tags fees
// @Accept json
// @Produce json
// @Param fee body FeeRequest true "Fee data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /fees [post]
func (s *FeeService) SubmitFee(w http.ResponseWriter, r *http.Request) {
	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req FeeRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if !s.config.MethodSupported(req.PaymentMethod) {
		SendErrorResponse(w, fmt.Sprintf("Unsupported payment method: %s", req.PaymentMethod), http.StatusBadRequest, nil)
		return
	}

	fee, err := s.createFee(r.Context(), &req)
	if err != nil {
		log.Printf("[FEE] Failed to create fee: %v", err)
		SendErrorResponse(w, "Failed to process payment", http.StatusInternalServerError, nil)
		return
	}

	s.audit.LogIntake("FEE", fee.TransactionID, fee.ReferenceCode, fee.Amount, fee.PaymentMethod)

	go func() {
		s.discord.NotifyFee(fee.TransactionID, fee.PayerName, fee.Amount, fee.Currency, fee.PaymentMethod)
		s.email.SendFeeReceipt(fee.PayerEmail, fee.PayerName, fee.ReceiptCode, fee.Amount, fee.Currency)
	}()

	SendJSON(w, http.StatusCreated, map[string]any{
		"success":       true,
		"transactionId": fee.TransactionID,
		"receiptCode":   fee.ReceiptCode,
		"referenceCode": fee.ReferenceCode,
		"walletAddress": s.config.WalletAddress(fee.PaymentMethod),
	})
}

// createFee allocates the yearly sequence, generates all three codes
// and inserts the row atomically, with a bounded retry if any generated
// code hits a unique constraint.
func (s *FeeService) createFee(ctx context.Context, req *FeeRequest) (*models.Fee, error) {
	now := time.Now()

	for attempt := 0; attempt <= s.config.CodeRetryLimit; attempt++ {
		fee, err := s.insertFee(ctx, req, now)
		if err == nil {
			return fee, nil
		}
		if !IsUniqueViolation(err) {
			return nil, err
		}
		log.Printf("[FEE] Code collision on attempt %d, regenerating", attempt+1)
	}

	return nil, ErrDuplicateIdentifier
}

func (s *FeeService) insertFee(ctx context.Context, req *FeeRequest, now time.Time) (*models.Fee, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	seq, err := NextSequence(tx, "fee", now.Year())
	if err != nil {
		return nil, err
	}

	fee := &models.Fee{
		TransactionID: s.codes.TransactionID(),
		ReceiptCode:   s.codes.ReceiptCode(),
		ReferenceCode: s.codes.FeeReference(now.Year(), seq),
		PayerName:     strings.TrimSpace(req.PayerName),
		PayerEmail:    strings.ToLower(strings.TrimSpace(req.PayerEmail)),
		Amount:        req.Amount,
		Currency:      s.config.Currency,
		PaymentMethod: req.PaymentMethod,
		Status:        "pending",
		CreatedAt:     now,
	}

	err = tx.QueryRow(`
		INSERT INTO fees
		(transaction_id, receipt_code, reference_code, payer_name, payer_email, amount, currency, payment_method, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, fee.TransactionID, fee.ReceiptCode, fee.ReferenceCode, fee.PayerName, fee.PayerEmail,
		fee.Amount, fee.Currency, fee.PaymentMethod, fee.Status, fee.CreatedAt).Scan(&fee.ID)

	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return fee, nil
}

// VerifyFee looks up a fee by receipt code and returns the redacted view
// @Summary Verify a fee payment
// @Description Public status lookup by receipt code
// @Tags fees
// @Produce json
// @Param receiptCode path string true "Receipt code"
// @Success 200 {object} models.PublicFee
// @Failure 404 {object} ErrorResponse
// @Router /fees/verify/{receiptCode} [get]
func (s *FeeService) VerifyFee(w http.ResponseWriter, r *http.Request) {
	receiptCode := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "receiptCode")))

	var f models.PublicFee
	err := s.db.QueryRow(`
		SELECT receipt_code, reference_code, payer_name, amount, currency, payment_method, status, created_at
		FROM fees
		WHERE receipt_code = $1
	`, receiptCode).Scan(&f.ReceiptCode, &f.ReferenceCode, &f.PayerName, &f.Amount,
		&f.Currency, &f.PaymentMethod, &f.Status, &f.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Payment not found", http.StatusNotFound, nil)
		} else {
			log.Printf("[FEE] Failed to verify receipt %s: %v", receiptCode, err)
			SendErrorResponse(w, "Failed to verify payment", http.StatusInternalServerError, nil)
		}
		return
	}

	SendJSON(w, http.StatusOK, f)
}

// ListFees returns recent fee payments for authenticated staff
// @Summary List fees
// @Tags fees
// @Produce json
// @Success 200 {object} object{fees=[]models.Fee,count=int}
// @Router /fees [get]
func (s *FeeService) ListFees(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.Query(`
		SELECT id, transaction_id, receipt_code, reference_code, payer_name, payer_email,
		       amount, currency, payment_method, status, created_at
		FROM fees
		ORDER BY created_at DESC
		LIMIT 50
	`)
	if err != nil {
		log.Printf("[FEE] Failed to list fees: %v", err)
		SendErrorResponse(w, "Failed to fetch fees", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	fees := []models.Fee{}
	for rows.Next() {
		var f models.Fee
		if err := rows.Scan(&f.ID, &f.TransactionID, &f.ReceiptCode, &f.ReferenceCode,
			&f.PayerName, &f.PayerEmail, &f.Amount, &f.Currency, &f.PaymentMethod,
			&f.Status, &f.CreatedAt); err != nil {
			log.Printf("[FEE] Row scan failed: %v", err)
			SendErrorResponse(w, "Failed to fetch fees", http.StatusInternalServerError, nil)
			return
		}
		fees = append(fees, f)
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"fees":  fees,
		"count": len(fees),
	})
}
