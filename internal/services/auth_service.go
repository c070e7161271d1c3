package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dpppa-bjm/pengaduan/internal/config"
	"github.com/dpppa-bjm/pengaduan/internal/dto"
	"github.com/dpppa-bjm/pengaduan/internal/identity"
	"github.com/dpppa-bjm/pengaduan/internal/models"
	"github.com/dpppa-bjm/pengaduan/internal/store"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

const minPasswordLength = 6

// AuthService owns credential accounts and the tokens issued for them.
type AuthService struct {
	db       *gorm.DB
	cfg      *config.Config
	profiles store.ProfileStore
	resolver *identity.Resolver
}

func NewAuthService(db *gorm.DB, cfg *config.Config, profiles store.ProfileStore, resolver *identity.Resolver) *AuthService {
	return &AuthService{db: db, cfg: cfg, profiles: profiles, resolver: resolver}
}

// Register creates the account and then, as a separate write, the profile.
// If the profile write fails the account still stands: the caller is signed
// in with ProfilePending set and Login recreates the profile later.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.Password != req.Confirm {
		return nil, invalid("confirm", "passwords do not match")
	}
	if len(req.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	var existing models.User
	if err := s.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(req.Email)).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:          uuid.New(),
		Email:       req.Email,
		Password:    string(hash),
		DisplayName: req.Name,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	profile := &models.Profile{
		ID:    user.ID,
		Email: req.Email,
		Name:  req.Name,
		NIK:   req.NIK,
		Phone: req.Phone,
		Role:  s.resolver.Heuristic().Role(req.Email),
	}
	pending := false
	if err := s.profiles.CreateProfile(ctx, profile); err != nil {
		slog.Error("profile write failed after account creation", "user_id", user.ID.String(), "action", "register", "error", err)
		pending = true
	} else {
		slog.Info("user registered", "user_id", user.ID.String(), "role", string(profile.Role))
	}

	resp, err := s.generateTokenPair(ctx, &user)
	if err != nil {
		return nil, err
	}
	resp.ProfilePending = pending
	return resp, nil
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	pending := !s.ensureProfile(ctx, &user)
	resp, err := s.generateTokenPair(ctx, &user)
	if err != nil {
		return nil, err
	}
	resp.ProfilePending = pending
	return resp, nil
}

// ensureProfile recreates a profile lost to a half-finished registration.
// It reports whether a profile exists afterwards.
func (s *AuthService) ensureProfile(ctx context.Context, user *models.User) bool {
	_, err := s.profiles.GetProfile(ctx, user.ID)
	if err == nil {
		return true
	}
	if !errors.Is(err, store.ErrNotFound) {
		slog.Warn("profile check failed on login", "user_id", user.ID.String(), "error", err)
		return false
	}

	profile := &models.Profile{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.DisplayName,
		Role:  s.resolver.Heuristic().Role(user.Email),
	}
	if err := s.profiles.CreateProfile(ctx, profile); err != nil {
		slog.Error("profile backfill failed", "user_id", user.ID.String(), "action", "login", "error", err)
		return false
	}
	slog.Info("profile backfilled on login", "user_id", user.ID.String(), "role", string(profile.Role))
	return true
}

func (s *AuthService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	tokenHash := hashToken(req.RefreshToken)

	var stored models.RefreshToken
	if err := s.db.WithContext(ctx).Where("token_hash = ? AND revoked = ?", tokenHash, false).First(&stored).Error; err != nil {
		return nil, ErrInvalidToken
	}

	s.db.WithContext(ctx).Model(&stored).Update("revoked", true)
	if time.Now().After(stored.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", stored.UserID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	return s.generateTokenPair(ctx, &user)
}

// Logout signs the caller out by revoking the refresh token.
func (s *AuthService) Logout(ctx context.Context, req *dto.LogoutRequest) error {
	tokenHash := hashToken(req.RefreshToken)
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
}

// VerifyAccessToken checks an access token and returns its principal.
func (s *AuthService) VerifyAccessToken(raw string) (identity.Principal, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return identity.Principal{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return identity.Principal{}, ErrInvalidToken
	}
	return PrincipalFromClaims(claims)
}

// PrincipalFromClaims reads the principal out of access token claims.
func PrincipalFromClaims(claims jwt.MapClaims) (identity.Principal, error) {
	sub, ok := claims["sub"].(string)
	if !ok {
		return identity.Principal{}, errors.New("missing sub claim")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return identity.Principal{}, fmt.Errorf("invalid sub claim: %w", err)
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	return identity.Principal{ID: id, Email: email, DisplayName: name}, nil
}

func (s *AuthService) generateTokenPair(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}

	resolved := s.resolver.Resolve(ctx, identity.Principal{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName})
	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         resolved,
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"name":  user.DisplayName,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(ctx context.Context, user *models.User) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)
	record := models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
