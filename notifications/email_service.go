package notifications

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/anjiri1684/gym_revenue/models"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

const brevoURL = "https://api.brevo.com/v3/smtp/email"

type BrevoService struct {
	APIKey      string
	SenderEmail string
	SenderName  string
	URL         string
	logger      zerolog.Logger
}

type brevoPayload struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HTMLContent string              `json:"htmlContent"`
}

// NewBrevoService returns nil when the sender is not configured, which
// callers treat as "email disabled".
func NewBrevoService(apiKey, senderEmail, senderName string, logger zerolog.Logger) *BrevoService {
	logger = logger.With().Str("component", "EmailService").Logger()
	if apiKey == "" || senderEmail == "" || senderName == "" {
		logger.Warn().Msg("email service not configured: missing api key, sender email or sender name")
		return nil
	}
	logger.Info().Str("sender", senderEmail).Msg("email service initialized")
	return &BrevoService{
		APIKey:      apiKey,
		SenderEmail: senderEmail,
		SenderName:  senderName,
		URL:         brevoURL,
		logger:      logger,
	}
}

func (s *BrevoService) send(toEmail, toName, subject, htmlContent string) error {
	if toEmail == "" || !strings.Contains(toEmail, "@") {
		return fmt.Errorf("invalid recipient email: %s", toEmail)
	}

	recipientName := toName
	if recipientName == "" {
		recipientName = toEmail[:strings.Index(toEmail, "@")]
	}

	payload := brevoPayload{
		Sender:      map[string]string{"name": s.SenderName, "email": s.SenderEmail},
		To:          []map[string]string{{"email": toEmail, "name": recipientName}},
		Subject:     subject,
		HTMLContent: htmlContent,
	}

	agent := fiber.Post(s.URL).
		Set("accept", "application/json").
		Set("api-key", s.APIKey).
		Timeout(10 * time.Second).
		JSON(payload)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("failed to send request: %w", errs[0])
	}
	if code != fiber.StatusCreated {
		return fmt.Errorf("brevo rejected email: status %d: %s", code, body)
	}
	return nil
}

func (s *BrevoService) SendEmail(toName, toEmail, subject, htmlContent string) error {
	if s == nil {
		return nil
	}
	if err := s.send(toEmail, toName, subject, htmlContent); err != nil {
		s.logger.Error().Err(err).Str("to", toEmail).Str("subject", subject).Msg("failed to send email")
		return err
	}
	s.logger.Debug().Str("to", toEmail).Str("subject", subject).Msg("email sent")
	return nil
}

// Push mails the notification to its recipient without blocking the caller.
func (s *BrevoService) Push(n models.Notification, recipient models.User) {
	if s == nil {
		return
	}
	body := fmt.Sprintf("<p>Hi %s,</p><p>%s</p>", html.EscapeString(recipient.FullName), html.EscapeString(n.Message))
	go s.SendEmail(recipient.FullName, recipient.Email, n.Title, body)
}
