package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/hopefoundation/backend/internal/config"
)

// DiscordNotifier posts structured messages to a Discord webhook on
// successful donation and fee creation. Delivery is best-effort: any
// failure is logged and never surfaced to the caller.
type DiscordNotifier struct {
	config *config.NotifyConfig
	client *http.Client
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordEmbed struct {
	Title  string         `json:"title"`
	Color  int            `json:"color"`
	Fields []discordField `json:"fields"`
}

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

func NewDiscordNotifier(cfg *config.NotifyConfig) *DiscordNotifier {
	return &DiscordNotifier{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// NotifyDonation announces a new donation. The donor name is masked
// when the anonymous flag is set.
func (n *DiscordNotifier) NotifyDonation(transactionID, donorName string, anonymous bool, amount float64, currency, method, project string) {
	if !n.config.DiscordEnabled() {
		return
	}

	fields := []discordField{
		{Name: "Amount", Value: fmt.Sprintf("%.2f %s", amount, currency), Inline: true},
		{Name: "Method", Value: method, Inline: true},
		{Name: "Donor", Value: maskIdentity(donorName, anonymous), Inline: true},
		{Name: "Transaction", Value: transactionID, Inline: false},
	}
	if project != "" {
		fields = append(fields, discordField{Name: "Project", Value: project, Inline: true})
	}

	n.send(discordPayload{Embeds: []discordEmbed{{
		Title:  "New Donation Received",
		Color:  0x2ecc71,
		Fields: fields,
	}}})
}

// NotifyFee announces a new fee payment
func (n *DiscordNotifier) NotifyFee(transactionID, payerName string, amount float64, currency, method string) {
	if !n.config.DiscordEnabled() {
		return
	}

	n.send(discordPayload{Embeds: []discordEmbed{{
		Title: "New Fee Payment",
		Color: 0x3498db,
		Fields: []discordField{
			{Name: "Amount", Value: fmt.Sprintf("%.2f %s", amount, currency), Inline: true},
			{Name: "Method", Value: method, Inline: true},
			{Name: "Payer", Value: payerName, Inline: true},
			{Name: "Transaction", Value: transactionID, Inline: false},
		},
	}}})
}

func (n *DiscordNotifier) send(payload discordPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[NOTIFY] Failed to marshal Discord payload: %v", err)
		return
	}

	resp, err := n.client.Post(n.config.DiscordWebhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[NOTIFY] Discord webhook delivery failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("[NOTIFY] Discord webhook returned status %d", resp.StatusCode)
	}
}

func maskIdentity(name string, anonymous bool) string {
	if anonymous || name == "" {
		return "Anonymous"
	}
	return name
}
