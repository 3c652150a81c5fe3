// Package queue defines message payloads exchanged over the message broker
// and the background consumer that delivers them.
package queue

// MailQueueName is the durable queue carrying outbound mail events.
const MailQueueName = "mail.password_reset"

// PasswordResetMail is published when a user requests a password reset. It
// carries everything the delivery side needs; the raw reset token appears
// only inside the reset URL and is never persisted anywhere.
type PasswordResetMail struct {
	To          string `json:"to"`
	Name        string `json:"name"`
	Subject     string `json:"subject"`
	ResetURL    string `json:"reset_url"`
	Message     string `json:"message"`
	RequestedAt string `json:"requested_at"`
}
