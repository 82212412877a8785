package mail

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"memoryshare/config"
	"memoryshare/utils"

	"gopkg.in/gomail.v2"
)

// SMTPSender abstracts the SMTP dialer so tests can stub delivery
type SMTPSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Message is a single transactional email to deliver
type Message struct {
	To      []string
	From    string
	Subject string
	HTML    string
}

// DeliveryResult reports the outcome of a dispatch attempt. Callers decide
// whether a failure matters; the dispatcher itself never retries.
type DeliveryResult struct {
	MessageID string
	Err       error
}

// Delivered reports whether the message was accepted by the provider
func (r DeliveryResult) Delivered() bool {
	return r.Err == nil
}

// Dispatcher forwards messages to an SMTP provider
type Dispatcher struct {
	sender   SMTPSender
	from     string
	fromName string
}

// NewDispatcher creates a dispatcher from the mail configuration
func NewDispatcher(cfg config.MailConfig) *Dispatcher {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &Dispatcher{
		sender:   dialer,
		from:     cfg.From,
		fromName: cfg.FromName,
	}
}

// NewDispatcherWithSender creates a dispatcher with a custom sender
func NewDispatcherWithSender(sender SMTPSender, from, fromName string) *Dispatcher {
	return &Dispatcher{
		sender:   sender,
		from:     from,
		fromName: fromName,
	}
}

// Dispatch sends a single message and returns the delivery outcome.
// Best-effort: the caller is free to ignore the result. The SMTP dial
// itself cannot be interrupted, so the context is only checked before
// delivery starts.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) DeliveryResult {
	if err := ctx.Err(); err != nil {
		return DeliveryResult{Err: err}
	}

	from := msg.From
	if from == "" {
		from = d.from
	}

	messageID := generateMessageID(from)
	logger := utils.Log.WithFields(map[string]interface{}{
		"to":      strings.Join(msg.To, ","),
		"subject": msg.Subject,
	})

	m := gomail.NewMessage()
	if d.fromName != "" && from == d.from {
		m.SetAddressHeader("From", from, d.fromName)
	} else {
		m.SetHeader("From", from)
	}
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", messageID)
	m.SetBody("text/html", msg.HTML)

	if err := d.sender.DialAndSend(m); err != nil {
		logger.Error("Mail delivery failed: %v", err)
		return DeliveryResult{Err: err}
	}

	logger.Info("Mail delivered: id=%s", messageID)
	return DeliveryResult{MessageID: messageID}
}

// generateMessageID creates a unique Message-ID for the email
func generateMessageID(from string) string {
	domain := "localhost"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = from[at+1:]
	}
	return fmt.Sprintf("<%d.%d.%d@%s>",
		time.Now().UnixNano(),
		os.Getpid(),
		rand.Int63(),
		domain)
}
