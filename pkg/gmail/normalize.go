package gmail

import (
	"encoding/base64"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"google.golang.org/api/gmail/v1"
)

// NormalizedThread is the typed boundary between raw Gmail payloads and the
// rest of the application. Everything downstream of sync works with these
// instead of *gmail.Thread.
type NormalizedThread struct {
	GmailThreadID string
	Subject       string
	Snippet       string
	HistoryID     uint64
	Messages      []NormalizedMessage
}

// NormalizedMessage is a single message extracted from a Gmail thread.
type NormalizedMessage struct {
	GmailMessageID string
	RFC822ID       string // Message-ID header, used for reply threading
	From           string
	FromName       string
	FromEmail      string
	To             string
	Subject        string
	Snippet        string
	Body           string
	IsHTML         bool
	Unread         bool
	SentByUs       bool // true when the message carries the SENT label
	ReceivedAt     time.Time
}

// NormalizeThread converts a full Gmail thread into the typed form.
// Returns nil for threads with no messages.
func NormalizeThread(t *gmail.Thread) *NormalizedThread {
	if t == nil || len(t.Messages) == 0 {
		return nil
	}

	nt := &NormalizedThread{
		GmailThreadID: t.Id,
		Snippet:       t.Snippet,
		HistoryID:     t.HistoryId,
		Messages:      make([]NormalizedMessage, 0, len(t.Messages)),
	}

	for _, msg := range t.Messages {
		nm := NormalizeMessage(msg)
		if nm == nil {
			continue
		}
		nt.Messages = append(nt.Messages, *nm)
		if nt.Subject == "" {
			nt.Subject = nm.Subject
		}
	}

	if len(nt.Messages) == 0 {
		return nil
	}
	return nt
}

// NormalizeMessage converts a full Gmail message into the typed form.
func NormalizeMessage(msg *gmail.Message) *NormalizedMessage {
	if msg == nil || msg.Payload == nil {
		return nil
	}

	from := getHeader(msg.Payload.Headers, "From")
	fromName, fromEmail := splitAddress(from)

	body, isHTML := getMessageBody(msg.Payload)

	return &NormalizedMessage{
		GmailMessageID: msg.Id,
		RFC822ID:       getHeader(msg.Payload.Headers, "Message-ID"),
		From:           from,
		FromName:       fromName,
		FromEmail:      fromEmail,
		To:             getHeader(msg.Payload.Headers, "To"),
		Subject:        getHeader(msg.Payload.Headers, "Subject"),
		Snippet:        msg.Snippet,
		Body:           body,
		IsHTML:         isHTML,
		Unread:         hasLabel(msg.LabelIds, "UNREAD"),
		SentByUs:       hasLabel(msg.LabelIds, "SENT"),
		ReceivedAt:     time.Unix(msg.InternalDate/1000, 0),
	}
}

// PlainPreview strips markup from a message body and truncates it for list
// views.
func PlainPreview(body string, isHTML bool, maxLen int) string {
	preview := body
	if isHTML {
		re := regexp.MustCompile(`<[^>]*>`)
		preview = re.ReplaceAllString(preview, " ")
		preview = strings.ReplaceAll(preview, "&nbsp;", " ")
		preview = strings.ReplaceAll(preview, "&lt;", "<")
		preview = strings.ReplaceAll(preview, "&gt;", ">")
		preview = strings.ReplaceAll(preview, "&amp;", "&")
		preview = strings.ReplaceAll(preview, "&quot;", "\"")
	}

	preview = strings.Join(strings.Fields(preview), " ")

	if maxLen > 0 && len(preview) > maxLen {
		preview = TruncateRunes(preview, maxLen) + "..."
	}
	return preview
}

// TruncateRunes cuts s to at most max bytes without splitting a UTF-8 rune.
func TruncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// splitAddress splits "Name <email@example.com>" into its parts. A bare
// address yields an empty name.
func splitAddress(from string) (name, email string) {
	if idx := strings.Index(from, "<"); idx >= 0 {
		name = strings.TrimSpace(strings.Trim(from[:idx], `" `))
		email = strings.TrimSpace(strings.Trim(from[idx:], "<> "))
		return name, email
	}
	return "", strings.TrimSpace(from)
}

func getHeader(headers []*gmail.MessagePartHeader, name string) string {
	for _, header := range headers {
		if strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}
	return ""
}

func getMessageBody(payload *gmail.MessagePart) (string, bool) {
	// If the payload itself is the body
	if payload.Body != nil && payload.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(payload.Body.Data)
		if err == nil {
			return string(data), payload.MimeType == "text/html"
		}
	}

	var htmlBody string
	var plainBody string

	var findBody func(parts []*gmail.MessagePart)
	findBody = func(parts []*gmail.MessagePart) {
		for _, part := range parts {
			if part.MimeType == "text/html" {
				if part.Body != nil && part.Body.Data != "" {
					data, err := base64.URLEncoding.DecodeString(part.Body.Data)
					if err == nil {
						htmlBody = string(data)
					}
				}
			} else if part.MimeType == "text/plain" {
				if part.Body != nil && part.Body.Data != "" {
					data, err := base64.URLEncoding.DecodeString(part.Body.Data)
					if err == nil {
						plainBody = string(data)
					}
				}
			}

			if len(part.Parts) > 0 {
				findBody(part.Parts)
			}
		}
	}

	findBody(payload.Parts)

	if htmlBody != "" {
		return htmlBody, true
	}
	return plainBody, false
}

func hasLabel(labels []string, labelID string) bool {
	for _, label := range labels {
		if label == labelID {
			return true
		}
	}
	return false
}
