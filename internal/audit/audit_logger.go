package audit

import (
	"encoding/json"
	"log"
	"time"
)

// AuditEvent is a structured record of an intake operation, emitted to
// the process log for the finance team's trail.
type AuditEvent struct {
	Timestamp     time.Time `json:"timestamp"`
	EventType     string    `json:"event_type"`
	TransactionID string    `json:"transaction_id"`
	ReferenceCode string    `json:"reference_code"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"`
	Details       any       `json:"details,omitempty"`
}

type AuditLogger struct{}

func NewAuditLogger() *AuditLogger {
	return &AuditLogger{}
}

func (a *AuditLogger) LogIntake(eventType, transactionID, referenceCode string, amount float64, method string) {
	event := AuditEvent{
		Timestamp:     time.Now(),
		EventType:     eventType,
		TransactionID: transactionID,
		ReferenceCode: referenceCode,
		Amount:        amount,
		Status:        "SUCCESS",
		Details:       map[string]string{"payment_method": method},
	}
	a.log(event)
}

func (a *AuditLogger) LogError(eventType, transactionID string, err error) {
	event := AuditEvent{
		Timestamp:     time.Now(),
		EventType:     eventType,
		TransactionID: transactionID,
		Status:        "FAILED",
		Details:       map[string]string{"error": err.Error()},
	}
	a.log(event)
}

func (a *AuditLogger) log(event AuditEvent) {
	data, _ := json.Marshal(event)
	log.Printf("AUDIT: %s", string(data))
}
