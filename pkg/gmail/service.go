package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// TokenUpdateFunc is a callback invoked when the OAuth access token is
// refreshed, so the caller can persist the new token.
type TokenUpdateFunc func(token *oauth2.Token) error

// Service talks to the shared company Gmail account.
type Service struct {
	clientID     string
	clientSecret string
}

type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(t); err != nil {
			log.Printf("[Gmail] Failed to persist refreshed token: %v", err)
		}
	}
	return t, nil
}

func NewService(clientID, clientSecret string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// getGmailService creates a Gmail API client from the stored tokens.
func (s *Service) getGmailService(ctx context.Context, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) (*gmail.Service, error) {
	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}

	// Only force refresh if we have a refresh token
	if refreshToken != "" {
		token.Expiry = time.Now()
	}

	config := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
	}

	tokenSource := config.TokenSource(ctx, token)

	// Wrap token source to detect refreshes
	wrappedSource := &notifyTokenSource{
		src:      tokenSource,
		current:  token,
		callback: onTokenRefresh,
	}

	client := oauth2.NewClient(ctx, wrappedSource)

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %v", err)
	}

	return srv, nil
}

// ListThreads retrieves normalized threads from the shared inbox.
// Pagination uses Gmail's pageToken; pass the token from the previous call
// (empty for the first page).
func (s *Service) ListThreads(ctx context.Context, accessToken, refreshToken string, maxResults int64, pageToken string, onTokenRefresh TokenUpdateFunc) ([]*NormalizedThread, string, error) {
	srv, err := s.getGmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, "", err
	}

	if maxResults <= 0 {
		maxResults = 50
	}
	if maxResults > 500 {
		maxResults = 500 // Gmail API maximum
	}

	listCall := srv.Users.Threads.List("me").MaxResults(maxResults)
	if pageToken != "" {
		listCall = listCall.PageToken(pageToken)
	}

	listResp, err := listCall.Do()
	if err != nil {
		return nil, "", fmt.Errorf("unable to list threads: %v", err)
	}

	type threadResult struct {
		thread *NormalizedThread
		err    error
	}

	threadChan := make(chan threadResult, len(listResp.Threads))
	semaphore := make(chan struct{}, 10) // Max 10 concurrent requests

	for _, th := range listResp.Threads {
		go func(threadID string) {
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			full, err := srv.Users.Threads.Get("me", threadID).Format("full").Do()
			if err != nil {
				threadChan <- threadResult{nil, err}
				return
			}
			threadChan <- threadResult{NormalizeThread(full), nil}
		}(th.Id)
	}

	threads := make([]*NormalizedThread, 0, len(listResp.Threads))
	for i := 0; i < len(listResp.Threads); i++ {
		result := <-threadChan
		if result.err != nil {
			log.Printf("[Gmail] Failed to fetch thread: %v", result.err)
			continue
		}
		if result.thread != nil {
			threads = append(threads, result.thread)
		}
	}

	return threads, listResp.NextPageToken, nil
}

// GetThread retrieves a single normalized thread by its Gmail thread ID.
func (s *Service) GetThread(ctx context.Context, accessToken, refreshToken, threadID string, onTokenRefresh TokenUpdateFunc) (*NormalizedThread, error) {
	srv, err := s.getGmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, err
	}

	full, err := srv.Users.Threads.Get("me", threadID).Format("full").Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve thread: %v", err)
	}

	return NormalizeThread(full), nil
}

// ListHistory returns the Gmail thread IDs touched since the given history
// ID. Used by the push notification consumer to sync incrementally instead
// of re-listing the whole inbox.
func (s *Service) ListHistory(ctx context.Context, accessToken, refreshToken string, startHistoryID uint64, onTokenRefresh TokenUpdateFunc) ([]string, uint64, error) {
	srv, err := s.getGmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, 0, err
	}

	seen := map[string]bool{}
	var threadIDs []string
	latestHistoryID := startHistoryID
	pageToken := ""

	for {
		call := srv.Users.History.List("me").StartHistoryId(startHistoryID)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, 0, fmt.Errorf("unable to list history: %v", err)
		}

		if resp.HistoryId > latestHistoryID {
			latestHistoryID = resp.HistoryId
		}

		for _, h := range resp.History {
			for _, added := range h.MessagesAdded {
				if added.Message != nil && added.Message.ThreadId != "" && !seen[added.Message.ThreadId] {
					seen[added.Message.ThreadId] = true
					threadIDs = append(threadIDs, added.Message.ThreadId)
				}
			}
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	return threadIDs, latestHistoryID, nil
}

// SendReply sends a reply inside an existing Gmail thread. The message is
// threaded with In-Reply-To/References headers plus the thread ID so it
// lands in the same conversation for the recipient and in Gmail.
func (s *Service) SendReply(ctx context.Context, accessToken, refreshToken string, reply ReplyRequest, onTokenRefresh TokenUpdateFunc) (string, error) {
	srv, err := s.getGmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return "", err
	}

	if reply.To == "" {
		return "", errors.New("reply recipient is required")
	}

	var emailMsg bytes.Buffer

	if reply.FromName != "" && reply.FromEmail != "" {
		encodedName := fmt.Sprintf("=?utf-8?B?%s?=", base64.StdEncoding.EncodeToString([]byte(reply.FromName)))
		emailMsg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", encodedName, reply.FromEmail))
	}
	emailMsg.WriteString(fmt.Sprintf("To: %s\r\n", reply.To))

	// Encode subject to handle non-ASCII characters (RFC 2047)
	encodedSubject := fmt.Sprintf("=?utf-8?B?%s?=", base64.StdEncoding.EncodeToString([]byte(reply.Subject)))
	emailMsg.WriteString(fmt.Sprintf("Subject: %s\r\n", encodedSubject))

	if reply.InReplyTo != "" {
		emailMsg.WriteString(fmt.Sprintf("In-Reply-To: %s\r\n", reply.InReplyTo))
		references := reply.References
		if references == "" {
			references = reply.InReplyTo
		}
		emailMsg.WriteString(fmt.Sprintf("References: %s\r\n", references))
	}

	emailMsg.WriteString("MIME-Version: 1.0\r\n")
	emailMsg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	emailMsg.WriteString(reply.Body)

	msg := &gmail.Message{
		Raw:      base64.URLEncoding.EncodeToString(emailMsg.Bytes()),
		ThreadId: reply.GmailThreadID,
	}

	sent, err := srv.Users.Messages.Send("me", msg).Do()
	if err != nil {
		return "", fmt.Errorf("unable to send reply: %v", err)
	}

	return sent.Id, nil
}

// MarkThreadRead clears the UNREAD label on every message in a thread.
func (s *Service) MarkThreadRead(ctx context.Context, accessToken, refreshToken, threadID string, onTokenRefresh TokenUpdateFunc) error {
	srv, err := s.getGmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return err
	}

	modifyReq := &gmail.ModifyThreadRequest{
		RemoveLabelIds: []string{"UNREAD"},
	}

	_, err = srv.Users.Threads.Modify("me", threadID, modifyReq).Do()
	if err != nil {
		return fmt.Errorf("unable to mark thread as read: %v", err)
	}

	return nil
}

// Watch sets up push notifications for the shared mailbox.
func (s *Service) Watch(ctx context.Context, accessToken, refreshToken string, topicName string, onTokenRefresh TokenUpdateFunc) (uint64, error) {
	srv, err := s.getGmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return 0, err
	}

	// Stop any existing watch first to avoid the "Only one user push
	// notification client allowed" error.
	log.Printf("[Gmail] Stopping existing watch...")
	_ = srv.Users.Stop("me").Do()

	req := &gmail.WatchRequest{
		TopicName: topicName,
		LabelIds:  []string{"INBOX"},
	}

	log.Printf("[Gmail] Starting watch on topic: %s", topicName)
	resp, err := srv.Users.Watch("me", req).Do()
	if err != nil {
		log.Printf("[Gmail] Watch API error: %v", err)
		return 0, fmt.Errorf("unable to watch mailbox: %v", err)
	}
	log.Printf("[Gmail] Watch started. Expiration: %d, HistoryId: %d", resp.Expiration, resp.HistoryId)

	return resp.HistoryId, nil
}

// Stop stops push notifications for the shared mailbox.
func (s *Service) Stop(ctx context.Context, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) error {
	srv, err := s.getGmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return err
	}

	err = srv.Users.Stop("me").Do()
	if err != nil {
		return fmt.Errorf("unable to stop mailbox watch: %v", err)
	}

	return nil
}

// ValidateToken checks the tokens against the Gmail profile endpoint and
// returns the address of the account they belong to.
func (s *Service) ValidateToken(ctx context.Context, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) (string, error) {
	srv, err := s.getGmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return "", err
	}

	profile, err := srv.Users.GetProfile("me").Do()
	if err != nil {
		return "", errors.New("invalid or expired access token")
	}

	return profile.EmailAddress, nil
}

// ReplyRequest describes an outbound in-thread reply.
type ReplyRequest struct {
	GmailThreadID string
	To            string
	FromName      string
	FromEmail     string
	Subject       string
	Body          string
	InReplyTo     string // RFC 822 Message-ID of the message being answered
	References    string
}
