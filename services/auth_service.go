package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"neurocards/config"
	"neurocards/models"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	db            *gorm.DB
	accessSecret  string
	refreshSecret string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{
		db:            db,
		accessSecret:  cfg.AccessTokenSecret,
		refreshSecret: cfg.RefreshTokenSecret,
		accessTTL:     time.Duration(cfg.AccessTokenMinutes) * time.Minute,
		refreshTTL:    time.Duration(cfg.RefreshTokenMinutes) * time.Minute,
	}
}

type RegisterRequest struct {
	Username        string `json:"username" binding:"required,min=3,max=64"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
}

func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (uint, error) {
	if req.Password != req.ConfirmPassword {
		return 0, fmt.Errorf("%w: passwords do not match", ErrValidation)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashed),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, ErrUserExists
		}
		return 0, err
	}

	config.Log.Info("user registered", zap.Uint("user_id", user.ID))
	return user.ID, nil
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", req.Username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokenPair(ctx, &user)
}

// Refresh validates a refresh token against its stored row and rotates it.
// A token that parses but has no valid row is treated as replayed: every
// refresh token of that user is invalidated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	userID, tokenID, err := s.parseToken(refreshToken, s.refreshSecret)
	if err != nil {
		return nil, ErrInvalidToken
	}

	var stored models.Token
	err = s.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND token = ?", tokenID, userID, refreshToken).
		First(&stored).Error
	if err != nil || stored.IsInvalid || time.Now().UTC().After(stored.ExpiresAt) {
		if invErr := s.invalidateAllTokens(ctx, userID); invErr != nil {
			config.Log.Error("failed to invalidate tokens", zap.Uint("user_id", userID), zap.Error(invErr))
		}
		return nil, ErrInvalidToken
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, ErrInvalidToken
	}

	if err := s.db.WithContext(ctx).Model(&stored).Update("is_invalid", true).Error; err != nil {
		return nil, err
	}
	return s.issueTokenPair(ctx, &user)
}

// Logout invalidates the presented refresh token.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	_, tokenID, err := s.parseToken(refreshToken, s.refreshSecret)
	if err != nil {
		return ErrInvalidToken
	}
	return s.db.WithContext(ctx).Model(&models.Token{}).
		Where("id = ?", tokenID).
		Update("is_invalid", true).Error
}

func (s *AuthService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ParseAccessToken returns the user id carried by a valid access token.
func (s *AuthService) ParseAccessToken(token string) (uint, error) {
	userID, _, err := s.parseToken(token, s.accessSecret)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return userID, nil
}

func (s *AuthService) issueTokenPair(ctx context.Context, user *models.User) (*TokenResponse, error) {
	accessExp := time.Now().UTC().Add(s.accessTTL)
	accessToken, err := signToken(user.ID, 0, accessExp, s.accessSecret)
	if err != nil {
		return nil, err
	}

	// The refresh token embeds the id of its own row, so the row is created
	// first and the signed token written back.
	refreshExp := time.Now().UTC().Add(s.refreshTTL)
	stored := models.Token{
		UserID:    user.ID,
		ExpiresAt: refreshExp,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&stored).Error; err != nil {
			return err
		}
		refreshToken, err := signToken(user.ID, stored.ID, refreshExp, s.refreshSecret)
		if err != nil {
			return err
		}
		stored.Token = refreshToken
		return tx.Model(&stored).Update("token", refreshToken).Error
	})
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		AccessToken:           accessToken,
		RefreshToken:          stored.Token,
		AccessTokenExpiresAt:  accessExp,
		RefreshTokenExpiresAt: refreshExp,
	}, nil
}

func (s *AuthService) invalidateAllTokens(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Model(&models.Token{}).
		Where("user_id = ?", userID).
		Update("is_invalid", true).Error
}

func signToken(userID, tokenID uint, expiresAt time.Time, secret string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
	}
	if tokenID != 0 {
		claims.ID = strconv.FormatUint(uint64(tokenID), 10)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// parseToken verifies signature and expiry, returning (user id, token row id).
func (s *AuthService) parseToken(tokenStr, secret string) (uint, uint, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return 0, 0, ErrInvalidToken
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil {
		return 0, 0, ErrInvalidToken
	}
	var tokenID uint64
	if claims.ID != "" {
		if tokenID, err = strconv.ParseUint(claims.ID, 10, 32); err != nil {
			return 0, 0, ErrInvalidToken
		}
	}
	return uint(userID), uint(tokenID), nil
}
