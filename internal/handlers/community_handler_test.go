package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redismock/v8"
	"github.com/hopefoundation/backend/internal/config"
	"github.com/hopefoundation/backend/internal/services"
	"github.com/stretchr/testify/assert"
)

func newTestHandler(t *testing.T) (*CommunityHandler, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	redisClient, _ := redismock.NewClientMock()
	cfg := &config.DonationConfig{
		MaxSubmissionPerIP: 10,
		RateLimitWindow:    time.Hour,
	}

	service := services.NewCommunityService(db, redisClient, cfg)
	return NewCommunityHandler(service), mock, func() { db.Close() }
}

func TestCommunityHandler_SubmitContact(t *testing.T) {
	handler, mock, cleanup := newTestHandler(t)
	defer cleanup()

	t.Run("successful submission", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO contact_messages").
			WithArgs("Alice Donor", "alice@example.com", "Volunteering", "How can I help?", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

		body, _ := json.Marshal(map[string]string{
			"name":    "Alice Donor",
			"email":   "Alice@Example.com",
			"subject": "Volunteering",
			"message": "How can I help?",
		})

		req := httptest.NewRequest("POST", "/contact", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.SubmitContact(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, true, response["success"])
		assert.Equal(t, float64(5), response["id"])
	})

	t.Run("missing subject", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{
			"name":    "Alice Donor",
			"email":   "alice@example.com",
			"message": "Hello",
		})

		req := httptest.NewRequest("POST", "/contact", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.SubmitContact(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid email", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{
			"name":    "Alice Donor",
			"email":   "nope",
			"subject": "Hi",
			"message": "Hello",
		})

		req := httptest.NewRequest("POST", "/contact", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.SubmitContact(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCommunityHandler_Subscribe(t *testing.T) {
	handler, mock, cleanup := newTestHandler(t)
	defer cleanup()

	t.Run("new subscriber", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO subscribers").
			WithArgs("bob@example.com", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"unsubscribe_token"}).
				AddRow("3f1c0d6e-8c1a-4f2e-9f41-2b6d7a8e9c10"))

		body, _ := json.Marshal(map[string]string{"email": "bob@example.com"})

		req := httptest.NewRequest("POST", "/newsletter/subscribe", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Subscribe(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, true, response["success"])
		assert.Equal(t, "3f1c0d6e-8c1a-4f2e-9f41-2b6d7a8e9c10", response["unsubscribeToken"])
	})

	t.Run("repeat signup keeps the original token", func(t *testing.T) {
		// the upsert returns the stored token, not the freshly generated one
		mock.ExpectQuery("INSERT INTO subscribers").
			WithArgs("bob@example.com", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"unsubscribe_token"}).
				AddRow("3f1c0d6e-8c1a-4f2e-9f41-2b6d7a8e9c10"))

		body, _ := json.Marshal(map[string]string{"email": "bob@example.com"})

		req := httptest.NewRequest("POST", "/newsletter/subscribe", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Subscribe(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, "3f1c0d6e-8c1a-4f2e-9f41-2b6d7a8e9c10", response["unsubscribeToken"])
	})

	t.Run("missing email", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/newsletter/subscribe", bytes.NewBuffer([]byte(`{}`)))
		w := httptest.NewRecorder()

		handler.Subscribe(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCommunityHandler_Unsubscribe(t *testing.T) {
	handler, mock, cleanup := newTestHandler(t)
	defer cleanup()

	t.Run("known token", func(t *testing.T) {
		mock.ExpectExec("UPDATE subscribers").
			WithArgs("3f1c0d6e-8c1a-4f2e-9f41-2b6d7a8e9c10").
			WillReturnResult(sqlmock.NewResult(0, 1))

		r := chi.NewRouter()
		r.Get("/newsletter/unsubscribe/{token}", handler.Unsubscribe)

		req := httptest.NewRequest("GET", "/newsletter/unsubscribe/3f1c0d6e-8c1a-4f2e-9f41-2b6d7a8e9c10", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown token", func(t *testing.T) {
		mock.ExpectExec("UPDATE subscribers").
			WithArgs("not-a-token").
			WillReturnResult(sqlmock.NewResult(0, 0))

		r := chi.NewRouter()
		r.Get("/newsletter/unsubscribe/{token}", handler.Unsubscribe)

		req := httptest.NewRequest("GET", "/newsletter/unsubscribe/not-a-token", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
