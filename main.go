package main

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	api "fieldline-backend/cmd/api"
	"fieldline-backend/internal/audit"
	authdomain "fieldline-backend/internal/auth/domain"
	authRepo "fieldline-backend/internal/auth/repository"
	authUsecasePkg "fieldline-backend/internal/auth/usecase"
	"fieldline-backend/internal/notes"
	"fieldline-backend/internal/notification"
	"fieldline-backend/internal/presence"
	projectDelivery "fieldline-backend/internal/project/delivery"
	projectdomain "fieldline-backend/internal/project/domain"
	projectRepo "fieldline-backend/internal/project/repository"
	threadDelivery "fieldline-backend/internal/thread/delivery"
	threaddomain "fieldline-backend/internal/thread/domain"
	threadRepo "fieldline-backend/internal/thread/repository"
	threadUsecasePkg "fieldline-backend/internal/thread/usecase"
	"fieldline-backend/pkg/ai"
	"fieldline-backend/pkg/chroma"
	"fieldline-backend/pkg/config"
	"fieldline-backend/pkg/database"
	"fieldline-backend/pkg/fcm"
	"fieldline-backend/pkg/gemini"
	gmailpkg "fieldline-backend/pkg/gmail"

	"golang.org/x/oauth2"
)

// mailboxCredentials resolves the shared mailbox OAuth tokens from the user
// record the company account was connected with, and persists refreshes.
type mailboxCredentials struct {
	users authRepo.UserRepository
	email string
}

func (m *mailboxCredentials) Credentials() (string, string, gmailpkg.TokenUpdateFunc, error) {
	if m.email == "" {
		return "", "", nil, errors.New("SHARED_MAILBOX_EMAIL is not configured")
	}

	user, err := m.users.FindByEmail(m.email)
	if err != nil {
		return "", "", nil, err
	}
	if user == nil || user.AccessToken == "" {
		return "", "", nil, errors.New("shared mailbox is not connected")
	}

	onRefresh := func(t *oauth2.Token) error {
		user.AccessToken = t.AccessToken
		if t.RefreshToken != "" {
			user.RefreshToken = t.RefreshToken
		}
		return m.users.Update(user)
	}

	return user.AccessToken, user.RefreshToken, onRefresh, nil
}

// buildAIProvider selects the provider stack. Ollama reads its endpoint
// through the runtime settings so the admin can repoint it without a
// restart.
func buildAIProvider(cfg *config.Config, settings *api.RuntimeSettings) ai.Provider {
	ollama := ai.NewOllamaServiceWithGetters(settings.OllamaBaseURL, settings.OllamaModel)

	switch ai.ProviderType(cfg.AIProvider) {
	case ai.ProviderOllama:
		return ollama
	case ai.ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			log.Println("[AI] GEMINI_API_KEY not set, falling back to Ollama")
			return ollama
		}
		return gemini.NewGeminiService(cfg.GeminiAPIKey)
	default: // auto
		var geminiProvider ai.Provider
		if cfg.GeminiAPIKey != "" {
			geminiProvider = gemini.NewGeminiService(cfg.GeminiAPIKey)
		}
		return ai.NewFallbackService(geminiProvider, ollama)
	}
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&authdomain.User{}, &authdomain.RefreshToken{}, &authdomain.FCMToken{}, &authdomain.Role{},
		&threaddomain.EmailThread{}, &threaddomain.EmailMessage{}, &threaddomain.InternalNote{},
		&threaddomain.LinkedEntity{}, &threaddomain.EmailAudit{},
		&projectdomain.Project{}, &projectdomain.Job{}, &projectdomain.Customer{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepo := authRepo.NewUserRepository(db)
	roleRepo := authRepo.NewRoleRepository(db)
	fcmTokenRepo := authRepo.NewFCMTokenRepository(db)
	threadRepository := threadRepo.NewThreadRepository(db)
	messageRepository := threadRepo.NewMessageRepository(db)
	noteRepository := threadRepo.NewNoteRepository(db)
	linkedEntityRepository := threadRepo.NewLinkedEntityRepository(db)
	auditRepository := threadRepo.NewAuditRepository(db)
	projectRepository := projectRepo.NewProjectRepository(db)

	// Audit recorder: fire-and-forget background writer
	recorder := audit.NewRecorder(auditRepository, 2)
	recorder.Start()
	defer recorder.Stop()

	// Runtime settings + AI provider
	settings := api.NewRuntimeSettings(cfg.OllamaBaseURL, cfg.OllamaModel)
	aiProvider := buildAIProvider(cfg, settings)

	// Vector index for semantic search (optional)
	var threadIndex threadUsecasePkg.ThreadIndexer
	if cfg.ChromaAPIKey != "" {
		index, err := chroma.NewThreadIndex(cfg)
		if err != nil {
			log.Printf("[WARN] Failed to initialize Chroma index (semantic search disabled): %v", err)
		} else {
			threadIndex = index
		}
	} else {
		log.Println("[WARN] CHROMA_API_KEY not set, semantic search disabled")
	}

	// Gmail service for the shared mailbox
	gmailService := gmailpkg.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret)
	mailbox := &mailboxCredentials{users: userRepo, email: cfg.MailboxEmail}

	// Thread usecase
	threadUsecase := threadUsecasePkg.NewThreadUsecase(threadUsecasePkg.Deps{
		Threads:  threadRepository,
		Messages: messageRepository,
		Notes:    noteRepository,
		Links:    linkedEntityRepository,
		Audits:   auditRepository,
		Projects: projectRepository,
		Users:    userRepo,
		Recorder: recorder,
		AI:       aiProvider,
		Gmail:    gmailService,
		Mailbox:  mailbox,
		Index:    threadIndex,
	})

	// Note autosaver: debounced writes through the thread usecase
	autosaver := notes.NewAutosaver(notes.StoreFunc(threadUsecase.UpdateNote), 2*time.Second)
	defer func() {
		if err := autosaver.Close(); err != nil {
			log.Printf("[Notes] Flush on shutdown failed: %v", err)
		}
	}()

	// Presence (optional)
	var presenceService *presence.Service
	if cfg.RedisAddr != "" {
		presenceService, err = presence.NewService(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Printf("[WARN] Failed to connect to Redis (presence disabled): %v", err)
			presenceService = nil
		}
	}

	// Gmail push notifications via Pub/Sub (optional)
	if cfg.GoogleProjectID != "" {
		topicName := cfg.GmailPubSubTopic
		if parts := strings.Split(topicName, "/"); len(parts) > 1 {
			topicName = parts[len(parts)-1]
		}

		var fcmClient *fcm.Client
		if cfg.FirebaseCredentialsFile != "" {
			fcmClient, err = fcm.NewClient(cfg.FirebaseCredentialsFile)
			if err != nil {
				log.Printf("[WARN] Failed to initialize FCM client (push disabled): %v", err)
			}
		}

		notifService, err := notification.NewService(cfg.GoogleProjectID, topicName, cfg.GmailPubSubSubscription, userRepo, fcmTokenRepo, fcmClient, gmailService, mailbox, threadUsecase, cfg.GoogleCredentialsFile)
		if err != nil {
			log.Printf("[ERROR] Failed to initialize notification service: %v", err)
		} else {
			threadUsecase.SetAssignmentNotifier(notifService)

			// Register the mailbox watch so Gmail starts publishing.
			if access, refresh, onRefresh, err := mailbox.Credentials(); err != nil {
				log.Printf("[WARN] Mailbox not connected, Gmail watch skipped: %v", err)
			} else {
				fullTopic := "projects/" + cfg.GoogleProjectID + "/topics/" + topicName
				historyID, err := gmailService.Watch(context.Background(), access, refresh, fullTopic, onRefresh)
				if err != nil {
					log.Printf("[WARN] Failed to register Gmail watch: %v", err)
				} else {
					notifService.SetStartHistoryID(historyID)
				}
			}

			go notifService.Start(context.Background())
		}
	} else {
		log.Println("[WARN] GOOGLE_PROJECT_ID not configured, push notifications disabled")
	}

	// Auth usecase and HTTP handlers
	authUsecase := authUsecasePkg.NewAuthUsecase(userRepo, roleRepo, fcmTokenRepo, gmailService, cfg)
	threadHandler := threadDelivery.NewThreadHandler(threadUsecase, autosaver, presenceService)
	projectHandler := projectDelivery.NewProjectHandler(projectRepository)
	settingsHandler := api.NewSettingsHandler(settings)

	handler := api.NewHandler(authUsecase, threadHandler, projectHandler, settingsHandler, cfg)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
