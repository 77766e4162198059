package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	authdomain "fieldline-backend/internal/auth/domain"
	authdto "fieldline-backend/internal/auth/dto"
	"fieldline-backend/internal/auth/repository"
	"fieldline-backend/internal/permission"
	"fieldline-backend/pkg/config"
	gmailpkg "fieldline-backend/pkg/gmail"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// authUsecase implements AuthUsecase interface
type authUsecase struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
	fcmRepo  repository.FCMTokenRepository
	config   *config.Config
	gmail    *gmailpkg.Service

	// Seams for the mailbox connect flow; production wiring talks to
	// Google, tests swap these out.
	exchangeCode func(ctx context.Context, code string) (*oauth2.Token, error)
	profileEmail func(ctx context.Context, accessToken, refreshToken string) (string, error)
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(userRepo repository.UserRepository, roleRepo repository.RoleRepository, fcmRepo repository.FCMTokenRepository, gmailService *gmailpkg.Service, cfg *config.Config) AuthUsecase {
	u := &authUsecase{
		userRepo: userRepo,
		roleRepo: roleRepo,
		fcmRepo:  fcmRepo,
		config:   cfg,
		gmail:    gmailService,
	}
	u.exchangeCode = func(ctx context.Context, code string) (*oauth2.Token, error) {
		return u.mailboxOAuthConfig().Exchange(ctx, code)
	}
	u.profileEmail = func(ctx context.Context, accessToken, refreshToken string) (string, error) {
		if u.gmail == nil {
			return "", errors.New("gmail service is not configured")
		}
		return u.gmail.ValidateToken(ctx, accessToken, refreshToken, nil)
	}
	return u
}

func (u *authUsecase) Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error) {
	user, err := u.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, errors.New("invalid email or password")
	}

	if user.Provider != "email" {
		return nil, errors.New("please use Google Sign-In for this account")
	}

	if !repository.CheckPasswordHash(req.Password, user.Password) {
		return nil, errors.New("invalid email or password")
	}

	return u.generateTokens(user)
}

func (u *authUsecase) Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error) {
	existing, err := u.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		return nil, errors.New("email already registered")
	}

	hashedPassword, err := repository.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &authdomain.User{
		Email:    req.Email,
		Password: hashedPassword,
		Name:     req.Name,
		Provider: "email",
		Role:     authdomain.SystemRoleMember,
	}

	if err := u.userRepo.Create(user); err != nil {
		return nil, err
	}

	return u.generateTokens(user)
}

// GoogleTokenInfo represents the response from Google's tokeninfo endpoint
type GoogleTokenInfo struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	EmailVerified string `json:"email_verified"` // Google returns this as string "true" or "false"
	Sub           string `json:"sub"`
}

func (u *authUsecase) GoogleSignIn(idToken string) (*authdto.TokenResponse, error) {
	// Verify ID token by calling Google's tokeninfo endpoint
	url := fmt.Sprintf("https://oauth2.googleapis.com/tokeninfo?id_token=%s", idToken)

	resp, err := http.Get(url)
	if err != nil {
		return nil, errors.New("failed to verify Google token: " + err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to verify Google token: status %d, body: %s", resp.StatusCode, string(body))
	}

	var tokenInfo GoogleTokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&tokenInfo); err != nil {
		return nil, errors.New("failed to decode Google token info: " + err.Error())
	}

	if tokenInfo.EmailVerified != "true" {
		return nil, errors.New("google email is not verified")
	}

	// Find or create user
	user, err := u.userRepo.FindByEmail(tokenInfo.Email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		user = &authdomain.User{
			Email:     tokenInfo.Email,
			Name:      tokenInfo.Name,
			AvatarURL: tokenInfo.Picture,
			Provider:  "google",
			Role:      authdomain.SystemRoleMember,
		}
		if err := u.userRepo.Create(user); err != nil {
			return nil, err
		}
	} else {
		user.Name = tokenInfo.Name
		user.AvatarURL = tokenInfo.Picture
		if err := u.userRepo.Update(user); err != nil {
			return nil, err
		}
	}

	return u.generateTokens(user)
}

func (u *authUsecase) RefreshToken(refreshToken string) (*authdto.TokenResponse, error) {
	token, err := jwt.Parse(refreshToken, func(token *jwt.Token) (interface{}, error) {
		return []byte(u.config.JWTSecret), nil
	})

	if err != nil || !token.Valid {
		return nil, errors.New("invalid refresh token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	storedToken, err := u.userRepo.FindRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	if storedToken == nil || storedToken.ExpiresAt.Before(time.Now()) {
		return nil, errors.New("refresh token expired")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, errors.New("user not found")
	}

	return u.generateTokens(user)
}

func (u *authUsecase) Logout(refreshToken string) error {
	return u.userRepo.DeleteRefreshToken(refreshToken)
}

// ResolvePermissions builds the permission evaluator for a user. Role
// lookup failures are logged and treated as a missing role: the evaluator
// falls to its fail-closed default rather than failing open.
func (u *authUsecase) ResolvePermissions(user *authdomain.User) *permission.Evaluator {
	if user == nil {
		return permission.NewEvaluator(nil, nil)
	}

	var role *authdomain.Role
	if user.CustomRoleID != "" {
		var err error
		role, err = u.roleRepo.FindByID(user.CustomRoleID)
		if err != nil {
			log.Printf("[Auth] Failed to load custom role %s for user %s: %v", user.CustomRoleID, user.ID, err)
			role = nil
		}
	}

	return permission.NewEvaluator(user, role)
}

func (u *authUsecase) RegisterFCMToken(userID, token string) error {
	return u.fcmRepo.Save(&authdomain.FCMToken{Token: token, UserID: userID})
}

func (u *authUsecase) UnregisterFCMToken(token string) error {
	return u.fcmRepo.DeleteToken(token)
}

func (u *authUsecase) ListTeamMembers() ([]*authdomain.User, error) {
	return u.userRepo.List()
}

func (u *authUsecase) CreateRole(userID string, req *authdto.RoleRequest) (*authdomain.Role, error) {
	role := &authdomain.Role{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
		CreatedBy:   userID,
	}
	if err := u.roleRepo.Create(role); err != nil {
		return nil, err
	}
	return role, nil
}

func (u *authUsecase) ListRoles() ([]*authdomain.Role, error) {
	return u.roleRepo.List()
}

func (u *authUsecase) UpdateRole(id string, req *authdto.RoleRequest) (*authdomain.Role, error) {
	role, err := u.roleRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, nil
	}

	role.Name = req.Name
	role.Description = req.Description
	role.Permissions = req.Permissions
	if err := u.roleRepo.Update(role); err != nil {
		return nil, err
	}
	return role, nil
}

func (u *authUsecase) DeleteRole(id string) error {
	return u.roleRepo.Delete(id)
}

func (u *authUsecase) generateTokens(user *authdomain.User) (*authdto.TokenResponse, error) {
	accessToken, err := u.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := u.generateRefreshToken(user)
	if err != nil {
		return nil, err
	}

	refreshTokenEntity := &authdomain.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(u.config.JWTRefreshExpiry),
	}
	if err := u.userRepo.SaveRefreshToken(refreshTokenEntity); err != nil {
		return nil, err
	}

	return &authdto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

func (u *authUsecase) generateAccessToken(user *authdomain.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(u.config.JWTAccessExpiry).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(u.config.JWTSecret))
}

func (u *authUsecase) generateRefreshToken(user *authdomain.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"token_id": uuid.New().String(),
		"exp":      time.Now().Add(u.config.JWTRefreshExpiry).Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(u.config.JWTSecret))
}

func (u *authUsecase) ValidateToken(tokenString string) (*authdomain.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(u.config.JWTSecret), nil
	})

	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, errors.New("user not found")
	}

	return user, nil
}
