package config

// NotifyConfig holds outbound notification settings. Empty values
// disable the corresponding channel.
type NotifyConfig struct {
	DiscordWebhookURL string
	SMTPHost          string
	SMTPPort          string
	SMTPUser          string
	SMTPPassword      string
	FromAddress       string
}

func LoadNotifyConfig() *NotifyConfig {
	return &NotifyConfig{
		DiscordWebhookURL: getEnv("DISCORD_WEBHOOK_URL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getEnv("SMTP_PORT", "587"),
		SMTPUser:          getEnv("SMTP_USER", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		FromAddress:       getEnv("MAIL_FROM", "noreply@hopefoundation.org"),
	}
}

// DiscordEnabled reports whether a webhook URL is configured
func (c *NotifyConfig) DiscordEnabled() bool { return c.DiscordWebhookURL != "" }

// EmailEnabled reports whether SMTP delivery is configured
func (c *NotifyConfig) EmailEnabled() bool { return c.SMTPHost != "" }
