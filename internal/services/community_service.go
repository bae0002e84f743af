package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/hopefoundation/backend/internal/config"
)

var ErrTokenNotFound = errors.New("unsubscribe token not found")

// CommunityService handles contact-form submissions and newsletter
// signups.
type CommunityService struct {
	db     *sql.DB
	redis  *redis.Client
	config *config.DonationConfig
}

type ContactRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=2000"`
}

func NewCommunityService(db *sql.DB, redisClient *redis.Client, cfg *config.DonationConfig) *CommunityService {
	return &CommunityService{
		db:     db,
		redis:  redisClient,
		config: cfg,
	}
}

// SubmitContact stores a contact-form message
func (s *CommunityService) SubmitContact(ctx context.Context, req *ContactRequest) (int, error) {
	var id int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO contact_messages (name, email, subject, message, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, strings.TrimSpace(req.Name), strings.ToLower(strings.TrimSpace(req.Email)),
		req.Subject, req.Message, time.Now()).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("failed to store contact message: %w", err)
	}

	return id, nil
}

// Subscribe registers an email for the newsletter. A repeat signup
// reactivates the existing row and keeps its token, so subscribing is
// idempotent.
func (s *CommunityService) Subscribe(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	token := uuid.New().String()

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO subscribers (email, unsubscribe_token, active, created_at)
		VALUES ($1, $2, true, $3)
		ON CONFLICT (email)
		DO UPDATE SET active = true
		RETURNING unsubscribe_token
	`, email, token, time.Now()).Scan(&token)

	if err != nil {
		return "", fmt.Errorf("failed to store subscriber: %w", err)
	}

	return token, nil
}

// Unsubscribe deactivates the subscriber holding the given token
func (s *CommunityService) Unsubscribe(ctx context.Context, token string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE subscribers
		SET active = false
		WHERE unsubscribe_token = $1
	`, token)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrTokenNotFound
	}

	return nil
}

// CheckRateLimit enforces the per-IP submission budget shared with the
// donation flow
func (s *CommunityService) CheckRateLimit(ctx context.Context, ip string) error {
	if s.redis == nil {
		return nil
	}

	key := fmt.Sprintf("contact:ratelimit:%s", ip)
	count, err := s.redis.Get(ctx, key).Int()
	if err != nil && err != redis.Nil {
		return nil
	}

	if count >= s.config.MaxSubmissionPerIP {
		return errors.New("rate limit exceeded")
	}

	return nil
}

// IncrementRateLimit records a submission against the per-IP budget
func (s *CommunityService) IncrementRateLimit(ctx context.Context, ip string) {
	if s.redis == nil {
		return
	}

	key := fmt.Sprintf("contact:ratelimit:%s", ip)
	pipe := s.redis.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.config.RateLimitWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[COMMUNITY] Failed to update rate limit for %s: %v", ip, err)
	}
}
