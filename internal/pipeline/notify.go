// =============================================================================
// notify.go - operator error notifications (SMTP)
// =============================================================================
//
// Sends plain-text alerts to the operator when a pipeline run fails, over
// SMTP with exponential-backoff retry (2s, 4s, 8s). This channel is for
// operations only; subscriber-facing mail goes through Resend (resend.go).
//
// Required environment:
//
//	NOTIFY_FROM     - sender address
//	NOTIFY_PASSWORD - SMTP password (for Gmail, an App Password)
//	NOTIFY_TO       - recipient addresses, comma separated
//
// Optional:
//
//	NOTIFY_SMTP_HOST - SMTP host (default "smtp.gmail.com")
//	NOTIFY_SMTP_PORT - SMTP port (default 587)
//
// =============================================================================
package pipeline

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	mail "gopkg.in/mail.v2"
)

// NotifierConfig holds SMTP settings for operator alerts.
type NotifierConfig struct {
	From     string
	Password string
	To       []string
	SMTPHost string
	SMTPPort int
}

// Notifier sends operator alerts.
type Notifier struct {
	config NotifierConfig
}

// NewNotifier creates a notifier. to is a comma separated recipient list.
func NewNotifier(from, password, to string) (*Notifier, error) {
	if from == "" {
		return nil, fmt.Errorf("NOTIFY_FROM is required")
	}
	if password == "" {
		return nil, fmt.Errorf("NOTIFY_PASSWORD is required")
	}
	if to == "" {
		return nil, fmt.Errorf("NOTIFY_TO is required")
	}

	toList := strings.Split(to, ",")
	for i, addr := range toList {
		toList[i] = strings.TrimSpace(addr)
	}

	return &Notifier{
		config: NotifierConfig{
			From:     from,
			Password: password,
			To:       toList,
			SMTPHost: "smtp.gmail.com",
			SMTPPort: 587,
		},
	}, nil
}

// NewNotifierFromEnv creates a notifier from NOTIFY_* environment variables.
func NewNotifierFromEnv() (*Notifier, error) {
	n, err := NewNotifier(os.Getenv("NOTIFY_FROM"), os.Getenv("NOTIFY_PASSWORD"), os.Getenv("NOTIFY_TO"))
	if err != nil {
		return nil, err
	}
	if host := os.Getenv("NOTIFY_SMTP_HOST"); host != "" {
		n.config.SMTPHost = host
	}
	if port := os.Getenv("NOTIFY_SMTP_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid NOTIFY_SMTP_PORT %q: %w", port, err)
		}
		n.config.SMTPPort = p
	}
	return n, nil
}

// NotifyFailure alerts the operator that a pipeline stage failed.
func (n *Notifier) NotifyFailure(stage string, runErr error) error {
	subject := fmt.Sprintf("[deal-relay] %s failed - %s", stage, time.Now().Format("2006-01-02"))

	var sb strings.Builder
	sb.WriteString("Deal newsletter pipeline failure\n\n")
	sb.WriteString(fmt.Sprintf("Stage:   %s\n", stage))
	sb.WriteString(fmt.Sprintf("Time:    %s\n", time.Now().Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("Error:   %v\n", runErr))

	return n.sendWithRetry(subject, sb.String())
}

// NotifySendReport mails a delivery report after a newsletter send.
func (n *Notifier) NotifySendReport(headline string, results []EmailResult) error {
	sent := 0
	var failures []EmailResult
	for _, r := range results {
		if r.Success {
			sent++
		} else {
			failures = append(failures, r)
		}
	}

	subject := fmt.Sprintf("[deal-relay] send report - %s (%d/%d delivered)",
		time.Now().Format("2006-01-02"), sent, len(results))

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Newsletter: %s\n", headline))
	sb.WriteString(fmt.Sprintf("Delivered:  %d/%d\n\n", sent, len(results)))

	if len(failures) > 0 {
		sb.WriteString("Failures:\n")
		for _, f := range failures {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", f.Recipient, f.Error))
		}
	}

	return n.sendWithRetry(subject, sb.String())
}

// sendWithRetry sends with exponential backoff: 2s, 4s, 8s between attempts.
func (n *Notifier) sendWithRetry(subject, body string) error {
	maxRetries := 3
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			wait := time.Duration(math.Pow(2, float64(i))) * time.Second
			fmt.Fprintf(os.Stderr, "Retrying notification send in %v...\n", wait)
			time.Sleep(wait)
		}

		err := n.send(subject, body)
		if err == nil {
			return nil
		}

		lastErr = err
		warnf("notification send failed (attempt %d/%d): %v", i+1, maxRetries, err)
	}

	return fmt.Errorf("failed to send notification after %d retries: %w", maxRetries, lastErr)
}

func (n *Notifier) send(subject, body string) error {
	m := mail.NewMessage()
	m.SetHeader("From", n.config.From)
	m.SetHeader("To", n.config.To...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := mail.NewDialer(n.config.SMTPHost, n.config.SMTPPort, n.config.From, n.config.Password)
	d.StartTLSPolicy = mail.MandatoryStartTLS

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("SMTP send failed: %w", err)
	}
	return nil
}
