package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	authdomain "fieldline-backend/internal/auth/domain"
	authdto "fieldline-backend/internal/auth/dto"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
)

// The shared mailbox is connected by an admin through the standard OAuth
// authorization-code flow: the frontend sends the user through consent,
// Google redirects back with a code, and ConnectMailbox exchanges it for
// Gmail-scoped tokens stored on the mailbox user record. A Google Sign-In
// ID token carries no Gmail access and cannot serve here.

// mailboxOAuthConfig builds the authorization-code config for the shared
// mailbox. Scopes cover sync (read/modify labels) and sending.
func (u *authUsecase) mailboxOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     u.config.GoogleClientID,
		ClientSecret: u.config.GoogleClientSecret,
		RedirectURL:  u.config.GoogleRedirectURI,
		Scopes:       []string{gmailapi.GmailModifyScope, gmailapi.GmailSendScope},
		Endpoint:     google.Endpoint,
	}
}

// MailboxAuthURL returns the consent URL the admin visits to authorize the
// shared mailbox. Offline access with forced consent so Google issues a
// refresh token even on re-connection.
func (u *authUsecase) MailboxAuthURL() string {
	return u.mailboxOAuthConfig().AuthCodeURL(
		"mailbox",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// ConnectMailbox exchanges an authorization code for Gmail tokens and stores
// them on the user record matching the configured shared mailbox address.
// A code authorized by any other Google account is rejected.
func (u *authUsecase) ConnectMailbox(ctx context.Context, code string) (*authdomain.User, error) {
	if u.config.MailboxEmail == "" {
		return nil, errors.New("SHARED_MAILBOX_EMAIL is not configured")
	}

	token, err := u.exchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	email, err := u.profileEmail(ctx, token.AccessToken, token.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify Gmail account: %w", err)
	}
	if !strings.EqualFold(email, u.config.MailboxEmail) {
		return nil, fmt.Errorf("authorized account %s is not the shared mailbox %s", email, u.config.MailboxEmail)
	}

	user, err := u.userRepo.FindByEmail(u.config.MailboxEmail)
	if err != nil {
		return nil, err
	}

	if user == nil {
		user = &authdomain.User{
			Email:        u.config.MailboxEmail,
			Name:         "Shared Mailbox",
			Provider:     "google",
			Role:         authdomain.SystemRoleMember,
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
		}
		if err := u.userRepo.Create(user); err != nil {
			return nil, err
		}
		log.Printf("[Auth] Shared mailbox %s connected", user.Email)
		return user, nil
	}

	user.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		user.RefreshToken = token.RefreshToken
	}
	if err := u.userRepo.Update(user); err != nil {
		return nil, err
	}

	log.Printf("[Auth] Shared mailbox %s reconnected", user.Email)
	return user, nil
}

// DisconnectMailbox stops the Gmail watch and drops the stored tokens.
// Already-disconnected is not an error.
func (u *authUsecase) DisconnectMailbox(ctx context.Context) error {
	user, err := u.userRepo.FindByEmail(u.config.MailboxEmail)
	if err != nil {
		return err
	}
	if user == nil || user.AccessToken == "" {
		return nil
	}

	if u.gmail != nil {
		if err := u.gmail.Stop(ctx, user.AccessToken, user.RefreshToken, nil); err != nil {
			log.Printf("[Auth] Failed to stop mailbox watch: %v", err)
		}
	}

	user.AccessToken = ""
	user.RefreshToken = ""
	return u.userRepo.Update(user)
}

// MailboxStatus reports whether the shared mailbox has usable tokens.
func (u *authUsecase) MailboxStatus() (*authdto.MailboxStatusResponse, error) {
	status := &authdto.MailboxStatusResponse{Email: u.config.MailboxEmail}
	if u.config.MailboxEmail == "" {
		return status, nil
	}

	user, err := u.userRepo.FindByEmail(u.config.MailboxEmail)
	if err != nil {
		return nil, err
	}
	status.Connected = user != nil && user.AccessToken != ""
	return status, nil
}
