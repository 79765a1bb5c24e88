package mail

// Sender is the outbound email capability. The SMTP implementation lives in
// internal/infra/email; tests substitute a recording fake.
type Sender interface {
	Send(to, subject, body, htmlBody string) error
}
