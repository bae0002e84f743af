package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
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

// ErrDuplicateIdentifier signals a unique-constraint hit on a generated
// code after the retry budget is exhausted.
var ErrDuplicateIdentifier = errors.New("generated identifier already exists")

type DonationService struct {
	db        *sql.DB
	redis     *redis.Client
	config    *config.DonationConfig
	codes     *CodeGenerator
	discord   *notify.DiscordNotifier
	email     *notify.EmailNotifier
	audit     *audit.AuditLogger
	validator *ValidationHelper
}

// DonationRequest is the donation submission payload
type DonationRequest struct {
	DonorName     string  `json:"donorName" validate:"required,min=2,max=100"`
	DonorEmail    string  `json:"donorEmail" validate:"omitempty,email"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod string  `json:"paymentMethod" validate:"required"`
	Project       string  `json:"project" validate:"omitempty,max=50"`
	Message       string  `json:"message" validate:"max=500"`
	Anonymous     bool    `json:"anonymous"`
}

func NewDonationService(db *sql.DB, redisClient *redis.Client, cfg *config.DonationConfig, notifyCfg *config.NotifyConfig) *DonationService {
	return &DonationService{
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

// SubmitDonation handles donation submission
// @Summary Submit a donation
// @Description Record a donation and return its transaction id, reference code and wallet address
// @Tags donations
// @Accept json
// @Produce json
// @Param donation body DonationRequest true "Donation data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /donations [post]
func (s *DonationService) SubmitDonation(w http.ResponseWriter, r *http.Request) {
	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req DonationRequest
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

	ip := clientIP(r)
	if err := s.checkRateLimit(r.Context(), ip); err != nil {
		log.Printf("[DONATION] Rate limit exceeded for IP %s", ip)
		SendErrorResponse(w, "Too many submissions, try again later", http.StatusTooManyRequests, nil)
		return
	}

	donation, err := s.createDonation(r.Context(), &req)
	if err != nil {
		log.Printf("[DONATION] Failed to create donation: %v", err)
		SendErrorResponse(w, "Failed to process donation", http.StatusInternalServerError, nil)
		return
	}

	s.incrementRateLimit(r.Context(), ip)
	s.audit.LogIntake("DONATION", donation.TransactionID, donation.ReferenceCode, donation.Amount, donation.PaymentMethod)

	// Notification delivery must never block or fail the response
	go func() {
		s.discord.NotifyDonation(donation.TransactionID, donation.DonorName, donation.Anonymous,
			donation.Amount, donation.Currency, donation.PaymentMethod, donation.Project)
		if !donation.Anonymous {
			s.email.SendDonationReceipt(donation.DonorEmail, donation.DonorName,
				donation.ReferenceCode, donation.Amount, donation.Currency)
		}
	}()

	SendJSON(w, http.StatusCreated, map[string]any{
		"success":       true,
		"transactionId": donation.TransactionID,
		"referenceCode": donation.ReferenceCode,
		"walletAddress": s.config.WalletAddress(donation.PaymentMethod),
	})
}

// createDonation inserts the record inside a transaction, regenerating
// codes and retrying once if a generated code collides with an existing
// row. The sequence allocation and the insert commit atomically.
func (s *DonationService) createDonation(ctx context.Context, req *DonationRequest) (*models.Donation, error) {
	now := time.Now()

	for attempt := 0; attempt <= s.config.CodeRetryLimit; attempt++ {
		donation, err := s.insertDonation(ctx, req, now)
		if err == nil {
			return donation, nil
		}
		if !IsUniqueViolation(err) {
			return nil, err
		}
		log.Printf("[DONATION] Code collision on attempt %d, regenerating", attempt+1)
	}

	return nil, ErrDuplicateIdentifier
}

func (s *DonationService) insertDonation(ctx context.Context, req *DonationRequest, now time.Time) (*models.Donation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var seq int64
	if req.Project == "" {
		seq, err = NextSequence(tx, "donation", now.Year())
		if err != nil {
			return nil, err
		}
	}

	donation := &models.Donation{
		TransactionID: s.codes.TransactionID(),
		ReferenceCode: s.codes.DonationReference(req.Project, now, seq),
		DonorName:     strings.TrimSpace(req.DonorName),
		DonorEmail:    strings.ToLower(strings.TrimSpace(req.DonorEmail)),
		Amount:        req.Amount,
		Currency:      s.config.Currency,
		PaymentMethod: req.PaymentMethod,
		Project:       req.Project,
		Message:       req.Message,
		Anonymous:     req.Anonymous,
		Status:        "pending",
		CreatedAt:     now,
	}

	err = tx.QueryRow(`
		INSERT INTO donations
		(transaction_id, reference_code, donor_name, donor_email, amount, currency, payment_method, project, message, anonymous, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, donation.TransactionID, donation.ReferenceCode, donation.DonorName, donation.DonorEmail,
		donation.Amount, donation.Currency, donation.PaymentMethod, donation.Project,
		donation.Message, donation.Anonymous, donation.Status, donation.CreatedAt).Scan(&donation.ID)

	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return donation, nil
}

// GetDonation returns the redacted public view of a donation
// @Summary Get donation by reference code
// @Tags donations
// @Produce json
// @Param reference path string true "Reference code"
// @Success 200 {object} models.PublicDonation
// @Failure 404 {object} ErrorResponse
// @Router /donations/{reference} [get]
func (s *DonationService) GetDonation(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	var d models.PublicDonation
	var anonymous bool
	err := s.db.QueryRow(`
		SELECT reference_code, donor_name, amount, currency, payment_method, project, anonymous, status, created_at
		FROM donations
		WHERE reference_code = $1
	`, reference).Scan(&d.ReferenceCode, &d.DonorName, &d.Amount, &d.Currency,
		&d.PaymentMethod, &d.Project, &anonymous, &d.Status, &d.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Donation not found", http.StatusNotFound, nil)
		} else {
			log.Printf("[DONATION] Failed to fetch donation %s: %v", reference, err)
			SendErrorResponse(w, "Failed to fetch donation", http.StatusInternalServerError, nil)
		}
		return
	}

	if anonymous {
		d.DonorName = "Anonymous"
	}

	SendJSON(w, http.StatusOK, d)
}

// ListDonations returns recent donations for authenticated staff
// @Summary List donations
// @Tags donations
// @Produce json
// @Param limit query int false "Number of donations to return (default: 50)"
// @Success 200 {object} object{donations=[]models.Donation,count=int}
// @Router /donations [get]
func (s *DonationService) ListDonations(w http.ResponseWriter, r *http.Request) {
	limit := 50

	rows, err := s.db.Query(`
		SELECT id, transaction_id, reference_code, donor_name, donor_email, amount, currency,
		       payment_method, project, message, anonymous, status, created_at
		FROM donations
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		log.Printf("[DONATION] Failed to list donations: %v", err)
		SendErrorResponse(w, "Failed to fetch donations", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	donations := []models.Donation{}
	for rows.Next() {
		var d models.Donation
		if err := rows.Scan(&d.ID, &d.TransactionID, &d.ReferenceCode, &d.DonorName, &d.DonorEmail,
			&d.Amount, &d.Currency, &d.PaymentMethod, &d.Project, &d.Message,
			&d.Anonymous, &d.Status, &d.CreatedAt); err != nil {
			log.Printf("[DONATION] Row scan failed: %v", err)
			SendErrorResponse(w, "Failed to fetch donations", http.StatusInternalServerError, nil)
			return
		}
		donations = append(donations, d)
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"donations": donations,
		"count":     len(donations),
	})
}

func (s *DonationService) checkRateLimit(ctx context.Context, ip string) error {
	if s.redis == nil {
		return nil
	}

	key := fmt.Sprintf("donate:ratelimit:%s", ip)
	count, err := s.redis.Get(ctx, key).Int()
	if err != nil && err != redis.Nil {
		return nil // redis trouble shouldn't block donations
	}

	if count >= s.config.MaxSubmissionPerIP {
		return errors.New("rate limit exceeded")
	}

	return nil
}

func (s *DonationService) incrementRateLimit(ctx context.Context, ip string) {
	if s.redis == nil {
		return
	}

	key := fmt.Sprintf("donate:ratelimit:%s", ip)
	pipe := s.redis.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.config.RateLimitWindow)
	pipe.Exec(ctx)
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
