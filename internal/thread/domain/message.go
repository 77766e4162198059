package domain

import "time"

// MessageDirection tells whether a message came from the customer side or
// was sent by the team through the shared mailbox.
type MessageDirection string

const (
	DirectionInbound  MessageDirection = "inbound"
	DirectionOutbound MessageDirection = "outbound"
)

// EmailMessage is a single Gmail message within a thread.
type EmailMessage struct {
	ID             string           `json:"id" gorm:"primaryKey"`
	ThreadID       string           `json:"thread_id" gorm:"index;not null"`
	GmailMessageID string           `json:"gmail_message_id" gorm:"uniqueIndex"`
	RFC822ID       string           `json:"rfc822_message_id,omitempty" gorm:"column:rfc822_message_id"`
	Direction      MessageDirection `json:"direction"`
	FromEmail      string           `json:"from_email"`
	FromName       string           `json:"from_name,omitempty"`
	ToEmails       string           `json:"to_emails"`
	CcEmails       string           `json:"cc_emails,omitempty"`
	Subject        string           `json:"subject"`
	Snippet        string           `json:"snippet"`
	BodyText       string           `json:"body_text"`
	BodyHTML       string           `json:"body_html,omitempty"`
	HasAttachments bool             `json:"has_attachments" gorm:"default:false"`
	SentAt         time.Time        `json:"sent_at" gorm:"index"`
	CreatedAt      time.Time        `json:"created_at"`
}

func (EmailMessage) TableName() string {
	return "email_messages"
}
