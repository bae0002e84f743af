package notify

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/hopefoundation/backend/internal/config"
)

// EmailNotifier sends receipt emails to donors and payers over SMTP.
// Like the webhook channel it is best-effort only.
type EmailNotifier struct {
	config *config.NotifyConfig
}

func NewEmailNotifier(cfg *config.NotifyConfig) *EmailNotifier {
	return &EmailNotifier{config: cfg}
}

// SendDonationReceipt emails a thank-you receipt for a donation
func (n *EmailNotifier) SendDonationReceipt(to, donorName, referenceCode string, amount float64, currency string) {
	subject := "Thank you for your donation"
	body := fmt.Sprintf(
		"Dear %s,\r\n\r\nThank you for your donation of %.2f %s.\r\nYour reference code is %s.\r\n\r\nHope Foundation",
		donorName, amount, currency, referenceCode)
	n.send(to, subject, body)
}

// SendFeeReceipt emails the receipt code for a fee payment
func (n *EmailNotifier) SendFeeReceipt(to, payerName, receiptCode string, amount float64, currency string) {
	subject := "Your payment receipt"
	body := fmt.Sprintf(
		"Dear %s,\r\n\r\nWe received your payment of %.2f %s.\r\nYour receipt code is %s. Use it to check your payment status at any time.\r\n\r\nHope Foundation",
		payerName, amount, currency, receiptCode)
	n.send(to, subject, body)
}

func (n *EmailNotifier) send(to, subject, body string) {
	if !n.config.EmailEnabled() || to == "" {
		return
	}

	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		n.config.FromAddress, to, subject, body))

	addr := n.config.SMTPHost + ":" + n.config.SMTPPort
	var auth smtp.Auth
	if n.config.SMTPUser != "" {
		auth = smtp.PlainAuth("", n.config.SMTPUser, n.config.SMTPPassword, n.config.SMTPHost)
	}

	if err := smtp.SendMail(addr, auth, n.config.FromAddress, []string{to}, msg); err != nil {
		log.Printf("[NOTIFY] Email delivery to %s failed: %v", to, err)
	}
}
