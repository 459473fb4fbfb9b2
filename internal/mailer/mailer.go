// Package mailer handles outbound email delivery. The application only ever
// sends transactional mail: OTP codes for registration and password resets.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tweetapp/internal/middleware"
)

// Mailer delivers a plain-text message. No delivery confirmation is consumed.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes mail to the structured log instead of delivering it.
// Used in development and tests, where no SMTP host is configured.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, to, subject, body string) error {
	middleware.Logger.InfoContext(ctx, "mail (log only)",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.String("body", body),
	)
	middleware.MailSends.WithLabelValues("logged").Inc()
	return nil
}

// OTPSubject is the subject line for registration verification mail.
const OTPSubject = "Verify your email address for TweetApp"

// ResetSubject is the subject line for password reset mail.
const ResetSubject = "Reset your TweetApp password"

// OTPBody renders the registration verification message for the given
// recipient, code, and validity window.
func OTPBody(email, code string, window time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", email)
	b.WriteString("Thank you for signing up with TweetApp - we're excited to have you join our community!\n")
	b.WriteString("To complete your registration and activate your account, please verify your email address.\n\n")
	b.WriteString("Your one-time verification code (OTP) is:\n\n")
	fmt.Fprintf(&b, "    %s\n\n", code)
	fmt.Fprintf(&b, "This code is valid for the next %s and can be used only once.\n", formatWindow(window))
	b.WriteString("If you didn't request this code, please ignore this email - your account will remain inactive until the code is verified.\n\n")
	b.WriteString("Welcome aboard,\nThe TweetApp Team\nsupport@tweetapp.com\n")
	return b.String()
}

// ResetBody renders the password reset message.
func ResetBody(email, code string, window time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", email)
	b.WriteString("We received a request to reset the password for your TweetApp account.\n\n")
	b.WriteString("Your password reset code is:\n\n")
	fmt.Fprintf(&b, "    %s\n\n", code)
	fmt.Fprintf(&b, "This code is valid for the next %s and can be used only once.\n", formatWindow(window))
	b.WriteString("If you didn't request a password reset, you can safely ignore this email.\n\n")
	b.WriteString("The TweetApp Team\nsupport@tweetapp.com\n")
	return b.String()
}

func formatWindow(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	mins := int(d.Minutes())
	if mins == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", mins)
}
