package gmail

import (
	"encoding/base64"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmailapi "google.golang.org/api/gmail/v1"
)

func TestSplitAddress(t *testing.T) {
	name, email := splitAddress("Jane Doe <jane@example.com>")
	assert.Equal(t, "Jane Doe", name)
	assert.Equal(t, "jane@example.com", email)

	name, email = splitAddress(`"Doe, Jane" <jane@example.com>`)
	assert.Equal(t, "Doe, Jane", name)
	assert.Equal(t, "jane@example.com", email)

	name, email = splitAddress("jane@example.com")
	assert.Equal(t, "", name)
	assert.Equal(t, "jane@example.com", email)
}

func TestPlainPreview(t *testing.T) {
	html := `<div>Hello &amp; welcome.<br>  Your   gate   is ready.</div>`
	preview := PlainPreview(html, true, 200)
	assert.Equal(t, "Hello & welcome. Your gate is ready.", preview)

	long := PlainPreview("abcdefghij", false, 5)
	assert.Equal(t, "abcde...", long)
}

func TestPlainPreviewNeverSplitsMultiByteRunes(t *testing.T) {
	// A 9-byte cut lands in the middle of the two-byte ö.
	preview := PlainPreview("héllo wörld ünïcode tëst", false, 9)
	assert.True(t, utf8.ValidString(preview))
	assert.Equal(t, "héllo w...", preview)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", TruncateRunes("short", 10))

	cut := TruncateRunes("日本語のテキスト", 10)
	assert.True(t, utf8.ValidString(cut))
	assert.LessOrEqual(t, len(cut), 10)
	assert.Equal(t, "日本語", cut)
}

func TestNormalizeMessage(t *testing.T) {
	body := base64.URLEncoding.EncodeToString([]byte("<p>Spring is broken</p>"))
	msg := &gmailapi.Message{
		Id:           "msg-1",
		Snippet:      "Spring is broken",
		InternalDate: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC).UnixMilli(),
		LabelIds:     []string{"INBOX", "UNREAD"},
		Payload: &gmailapi.MessagePart{
			MimeType: "text/html",
			Headers: []*gmailapi.MessagePartHeader{
				{Name: "From", Value: "Bob Customer <bob@example.com>"},
				{Name: "To", Value: "office@fieldline.example"},
				{Name: "Subject", Value: "Garage door spring"},
				{Name: "Message-ID", Value: "<abc@mail.example.com>"},
			},
			Body: &gmailapi.MessagePartBody{Data: body},
		},
	}

	nm := NormalizeMessage(msg)
	require.NotNil(t, nm)
	assert.Equal(t, "msg-1", nm.GmailMessageID)
	assert.Equal(t, "<abc@mail.example.com>", nm.RFC822ID)
	assert.Equal(t, "Bob Customer", nm.FromName)
	assert.Equal(t, "bob@example.com", nm.FromEmail)
	assert.Equal(t, "Garage door spring", nm.Subject)
	assert.Equal(t, "<p>Spring is broken</p>", nm.Body)
	assert.True(t, nm.IsHTML)
	assert.True(t, nm.Unread)
	assert.False(t, nm.SentByUs)
}

func TestNormalizeThreadTakesSubjectFromFirstMessage(t *testing.T) {
	mk := func(id, subject string, sent bool) *gmailapi.Message {
		labels := []string{"INBOX"}
		if sent {
			labels = []string{"SENT"}
		}
		return &gmailapi.Message{
			Id:       id,
			LabelIds: labels,
			Payload: &gmailapi.MessagePart{
				Headers: []*gmailapi.MessagePartHeader{
					{Name: "Subject", Value: subject},
					{Name: "From", Value: "bob@example.com"},
				},
			},
		}
	}

	nt := NormalizeThread(&gmailapi.Thread{
		Id:        "thr-1",
		HistoryId: 42,
		Messages: []*gmailapi.Message{
			mk("m1", "Gate opener quote", false),
			mk("m2", "Re: Gate opener quote", true),
		},
	})

	require.NotNil(t, nt)
	assert.Equal(t, "thr-1", nt.GmailThreadID)
	assert.Equal(t, "Gate opener quote", nt.Subject)
	assert.Len(t, nt.Messages, 2)
	assert.False(t, nt.Messages[0].SentByUs)
	assert.True(t, nt.Messages[1].SentByUs)
}

func TestNormalizeThreadEmpty(t *testing.T) {
	assert.Nil(t, NormalizeThread(nil))
	assert.Nil(t, NormalizeThread(&gmailapi.Thread{Id: "thr-2"}))
}
