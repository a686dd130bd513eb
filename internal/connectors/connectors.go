package connectors

import "medmaster/internal"

// MailConnector fetches vendor catalogue mails from one mailbox provider.
type MailConnector interface {
	FetchInbox(label string, max int) ([]internal.FetchedMailMessage, error)
}
