package auth

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"supplychain-backend/internal/apperr"
	"supplychain-backend/internal/database"
	"supplychain-backend/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	minPasswordLength = 5
	DefaultRole       = models.RolePlanner
)

type Service struct {
	DB         *gorm.DB
	Tokens     *TokenIssuer
	RefreshTTL time.Duration

	now func() time.Time
}

func NewService(db *gorm.DB, tokens *TokenIssuer, refreshTTL time.Duration) *Service {
	return &Service{DB: db, Tokens: tokens, RefreshTTL: refreshTTL, now: time.Now}
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      models.Role
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (in *RegisterInput) normalize() error {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if in.FirstName == "" || in.LastName == "" {
		return apperr.Validation("first name and last name are required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil || in.Email == "" {
		return apperr.Validation("a valid email is required")
	}
	if len(in.Password) < minPasswordLength {
		return apperr.Validation("password must be at least %d characters", minPasswordLength)
	}
	if in.Role == "" {
		in.Role = DefaultRole
	}
	if !in.Role.Valid() {
		return apperr.Validation("unknown role %q", in.Role)
	}
	return nil
}

// CreateUser stores a new account without issuing tokens.
func (s *Service) CreateUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}

	user := models.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
	}
	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("email %s is already registered", in.Email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Register is the public sign-up path. ADMIN accounts are only created
// through CreateUser.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*TokenPair, error) {
	if in.Role == models.RoleAdmin {
		return nil, apperr.Forbidden("role %s cannot be self-assigned", models.RoleAdmin)
	}

	var exists int64
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&exists).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists > 0 {
		return nil, apperr.Conflict("email %s is already registered", email)
	}

	user, err := s.CreateUser(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.issuePair(ctx, user)
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.Unauthenticated("invalid email or password")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Unauthenticated("invalid email or password")
	}
	return s.issuePair(ctx, &user)
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token itself is returned unchanged; an expired one is deleted.
func (s *Service) Refresh(ctx context.Context, token string) (*TokenPair, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperr.Validation("token is required")
	}

	var rt models.RefreshToken
	err := s.DB.WithContext(ctx).Where("token = ?", token).First(&rt).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.Unauthenticated("refresh token not found")
		}
		return nil, fmt.Errorf("load refresh token: %w", err)
	}

	if rt.Expired(s.now()) {
		if err := s.DB.WithContext(ctx).Delete(&rt).Error; err != nil {
			return nil, fmt.Errorf("delete expired refresh token: %w", err)
		}
		return nil, apperr.Unauthenticated("refresh token expired, please sign in again")
	}
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, rt.UserID).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.Unauthenticated("refresh token has no user")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	access, err := s.Tokens.Issue(&user)
	if err != nil {
		return nil, apperr.Internal("issue access token", err)
	}
	return s.pair(access, rt.Token), nil
}

func (s *Service) Profile(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("user %d not found", userID)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

// issuePair signs an access token and rotates the user's single refresh token.
func (s *Service) issuePair(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, err := s.Tokens.Issue(user)
	if err != nil {
		return nil, apperr.Internal("issue access token", err)
	}

	rt := models.RefreshToken{
		UserID:     user.ID,
		Token:      uuid.NewString(),
		ExpiryDate: s.now().Add(s.RefreshTTL),
	}
	err = s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "expiry_date", "updated_at"}),
	}).Create(&rt).Error
	if err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return s.pair(access, rt.Token), nil
}

func (s *Service) pair(access, refresh string) *TokenPair {
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.Tokens.TTL() / time.Second),
	}
}
