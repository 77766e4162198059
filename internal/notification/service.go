// Package notification consumes Gmail push updates for the shared mailbox
// and fans them out to the team's devices.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	authrepo "fieldline-backend/internal/auth/repository"
	threaddomain "fieldline-backend/internal/thread/domain"
	"fieldline-backend/internal/thread/usecase"
	"fieldline-backend/pkg/fcm"
	gmailpkg "fieldline-backend/pkg/gmail"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// GmailNotification is the payload Gmail publishes to the Pub/Sub topic.
type GmailNotification struct {
	EmailAddress string `json:"emailAddress"`
	HistoryID    uint64 `json:"historyId"`
}

type Service struct {
	pubsubClient  *pubsub.Client
	userRepo      authrepo.UserRepository
	fcmRepo       authrepo.FCMTokenRepository
	fcmClient     *fcm.Client
	gmailService  *gmailpkg.Service
	mailbox       usecase.MailboxCredentials
	threadUsecase usecase.ThreadUsecase
	topicName     string
	subName       string

	cursor historyCursor
}

// historyCursor tracks the last processed Gmail history ID. Pub/Sub delivers
// messages on concurrent goroutines, so all access goes through the mutex.
type historyCursor struct {
	mu   sync.Mutex
	last uint64
}

// Seed sets the starting cursor, typically from the Watch call.
func (c *historyCursor) Seed(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = id
}

// Advance claims the range (startID, id] for processing. It reports false
// when the update is a duplicate, arrived out of order, or only seeds an
// empty cursor.
func (c *historyCursor) Advance(id uint64) (startID uint64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == 0 {
		c.last = id
		return 0, false
	}
	if id <= c.last {
		return 0, false
	}
	startID = c.last
	c.last = id
	return startID, true
}

// Bump moves the cursor forward to id if it is newer.
func (c *historyCursor) Bump(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id > c.last {
		c.last = id
	}
}

func NewService(projectID, topicName, subName string, userRepo authrepo.UserRepository, fcmRepo authrepo.FCMTokenRepository, fcmClient *fcm.Client, gmailService *gmailpkg.Service, mailbox usecase.MailboxCredentials, threadUsecase usecase.ThreadUsecase, credentialsFile string) (*Service, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %v", err)
	}

	if subName == "" {
		subName = topicName + "-sub"
	}

	return &Service{
		pubsubClient:  client,
		userRepo:      userRepo,
		fcmRepo:       fcmRepo,
		fcmClient:     fcmClient,
		gmailService:  gmailService,
		mailbox:       mailbox,
		threadUsecase: threadUsecase,
		topicName:     topicName,
		subName:       subName,
	}, nil
}

// SetStartHistoryID seeds the dedup cursor, typically from the Watch call.
func (s *Service) SetStartHistoryID(historyID uint64) {
	s.cursor.Seed(historyID)
}

// Start blocks receiving Pub/Sub messages until the context is cancelled.
func (s *Service) Start(ctx context.Context) {
	log.Printf("[PubSub] Starting notification service with topic: %s, subscription: %s", s.topicName, s.subName)

	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		log.Printf("[PubSub] Error checking subscription existence: %v", err)
		return
	}

	if !exists {
		topic := s.pubsubClient.Topic(s.topicName)
		topicExists, err := topic.Exists(ctx)
		if err != nil {
			log.Printf("[PubSub] Error checking topic existence: %v", err)
			return
		}
		if !topicExists {
			log.Printf("[PubSub] Topic %s does not exist, cannot create subscription", s.topicName)
			return
		}

		sub, err = s.pubsubClient.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 10 * time.Second,
		})
		if err != nil {
			log.Printf("[PubSub] Failed to create subscription: %v", err)
			return
		}
		log.Printf("[PubSub] Created subscription: %s", s.subName)
	}

	log.Printf("[PubSub] Listening for messages on subscription: %s", s.subName)
	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		s.handleMessage(ctx, msg)
		msg.Ack()
	})
	if err != nil {
		log.Printf("[PubSub] Error receiving messages: %v", err)
	}
}

func (s *Service) handleMessage(ctx context.Context, msg *pubsub.Message) {
	var notification GmailNotification
	if err := json.Unmarshal(msg.Data, &notification); err != nil {
		log.Printf("[PubSub] Failed to unmarshal notification: %v", err)
		return
	}

	log.Printf("[PubSub] Mailbox update for %s (historyId: %d)", notification.EmailAddress, notification.HistoryID)

	startID, ok := s.cursor.Advance(notification.HistoryID)
	if !ok {
		log.Printf("[PubSub] Skipping notification (historyId %d already covered or seeding cursor)", notification.HistoryID)
		return
	}

	access, refresh, onRefresh, err := s.mailbox.Credentials()
	if err != nil {
		log.Printf("[PubSub] Failed to load mailbox credentials: %v", err)
		return
	}

	threadIDs, latest, err := s.gmailService.ListHistory(ctx, access, refresh, startID, onRefresh)
	if err != nil {
		log.Printf("[PubSub] Failed to list history: %v", err)
		return
	}
	s.cursor.Bump(latest)

	for _, gmailThreadID := range threadIDs {
		thread, newExternal, err := s.threadUsecase.SyncGmailThread(ctx, gmailThreadID)
		if err != nil {
			log.Printf("[PubSub] Failed to sync thread %s: %v", gmailThreadID, err)
			continue
		}
		if thread == nil || !newExternal {
			continue
		}

		go s.pushNewMail(thread)
	}
}

// pushNewMail notifies the team about fresh customer mail. Assigned threads
// notify the assignee only; unassigned threads notify everyone.
func (s *Service) pushNewMail(thread *threaddomain.EmailThread) {
	if s.fcmClient == nil || s.fcmRepo == nil {
		return
	}

	var userIDs []string
	if thread.AssignedTo != "" {
		userIDs = []string{thread.AssignedTo}
	} else {
		users, err := s.userRepo.List()
		if err != nil {
			log.Printf("[FCM] Failed to list users: %v", err)
			return
		}
		for _, u := range users {
			userIDs = append(userIDs, u.ID)
		}
	}

	subject := thread.Subject
	if len(subject) > 100 {
		subject = gmailpkg.TruncateRunes(subject, 97) + "..."
	}
	if subject == "" {
		subject = "(no subject)"
	}

	s.sendToUsers(userIDs, fcm.Notification{
		Kind:     fcm.KindNewMail,
		Title:    "New customer email",
		Body:     subject,
		ThreadID: thread.ID,
	})
}

// PushAssignment notifies a teammate that a thread was assigned to them.
func (s *Service) PushAssignment(thread *threaddomain.EmailThread, assigneeID, assignedByName string) {
	if s.fcmClient == nil || s.fcmRepo == nil || assigneeID == "" {
		return
	}

	body := thread.Subject
	if body == "" {
		body = "(no subject)"
	}

	s.sendToUsers([]string{assigneeID}, fcm.Notification{
		Kind:     fcm.KindAssigned,
		Title:    fmt.Sprintf("%s assigned you a thread", assignedByName),
		Body:     body,
		ThreadID: thread.ID,
	})
}

func (s *Service) sendToUsers(userIDs []string, n fcm.Notification) {
	var tokenStrings []string
	for _, userID := range userIDs {
		tokens, err := s.fcmRepo.GetTokensByUserID(userID)
		if err != nil {
			log.Printf("[FCM] Error getting tokens for user %s: %v", userID, err)
			continue
		}
		for _, t := range tokens {
			tokenStrings = append(tokenStrings, t.Token)
		}
	}

	if len(tokenStrings) == 0 {
		return
	}

	failedTokens, err := s.fcmClient.SendToDevices(context.Background(), tokenStrings, n)
	if err != nil {
		log.Printf("[FCM] Error sending notifications: %v", err)
		return
	}

	// Stale device tokens are pruned as delivery fails.
	for _, token := range failedTokens {
		if err := s.fcmRepo.DeleteToken(token); err != nil {
			log.Printf("[FCM] Failed to delete stale token: %v", err)
		}
	}
}
