// Package notify wraps the transactional email and SMS providers.
package notify

import "context"

// EmailSender delivers a single transactional email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender delivers a single SMS.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}
