package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"

	"ilumina-bknd/internal/auth"
	"ilumina-bknd/internal/config"
	"ilumina-bknd/internal/logger"
	model "ilumina-bknd/internal/models"
)

type AuthService struct {
	db   *bun.DB
	jwt  *auth.JWTManager
	cfg  *config.Config
	logr *logger.Logger
}

func NewAuthService(db *bun.DB, jwt *auth.JWTManager, cfg *config.Config, logr *logger.Logger) *AuthService {
	return &AuthService{db: db, jwt: jwt, cfg: cfg, logr: logr}
}

// HashPassword uses bcrypt
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}

func ComparePassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

type UserInfo struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

// Login authenticates a staff account by email/password.
func (s *AuthService) Login(ctx context.Context, email, password, deviceInfo string) (*auth.TokenPair, *UserInfo, error) {
	var u model.User
	err := s.db.NewSelect().Model(&u).Where("email = ?", email).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, fmt.Errorf("invalid credentials")
		}
		return nil, nil, err
	}
	if u.PasswordHash == "" {
		return nil, nil, fmt.Errorf("account has no password set")
	}
	if err := ComparePassword(u.PasswordHash, password); err != nil {
		return nil, nil, fmt.Errorf("invalid credentials")
	}

	// update last_login
	now := time.Now().UTC()
	_, _ = s.db.NewUpdate().Model(&model.User{LastLoginAt: &now}).Column("last_login_at").Where("id = ?", u.ID).Exec(ctx)

	pair, err := s.jwt.GenerateTokenPair(u.ID.String(), s.cfg.AccessTokenTTL, s.cfg.RefreshTokenTTL, u.TokenVersion, u.Roles)
	if err != nil {
		return nil, nil, err
	}

	if err := s.storeRefreshToken(ctx, u.ID, pair.RefreshToken, pair.RefreshExp, pair.JTI, deviceInfo); err != nil {
		return nil, nil, err
	}

	userInfo := &UserInfo{
		ID:    u.ID.String(),
		Email: u.Email,
		Name:  u.Name,
		Roles: u.Roles,
	}

	return pair, userInfo, nil
}

// storeRefreshToken stores refresh token hashed and enforces 2 sessions per user
func (s *AuthService) storeRefreshToken(ctx context.Context, userID uuid.UUID, refreshToken string, expiresAt time.Time, jti string, deviceInfo string) error {
	// cleanup expired tokens for user
	_, _ = s.db.NewDelete().Model((*model.RefreshToken)(nil)).Where("user_id = ? AND expires_at < now()", userID).Exec(ctx)

	// enforce max 2 active sessions (non-revoked & not expired)
	var count int
	err := s.db.NewSelect().ColumnExpr("count(*)").Table("refresh_tokens").Where("user_id = ? AND revoked = false AND expires_at > now()", userID).Scan(ctx, &count)
	if err == nil && count >= 2 {
		toRemove := count - 1
		if toRemove <= 0 {
			toRemove = 1
		}
		_, _ = s.db.NewDelete().Model((*model.RefreshToken)(nil)).
			Where("id IN (SELECT id FROM refresh_tokens WHERE user_id = ? AND revoked = false AND expires_at > now() ORDER BY created_at ASC LIMIT ?)", userID, toRemove).
			Exec(ctx)
	}

	hashed := auth.HashToken(refreshToken)
	rt := model.RefreshToken{
		UserID:     userID,
		JTI:        jti,
		TokenHash:  hashed,
		DeviceInfo: &deviceInfo,
		Revoked:    false,
		CreatedAt:  time.Now().UTC(),
		ExpiresAt:  expiresAt,
	}
	_, err = s.db.NewInsert().Model(&rt).Exec(ctx)
	return err
}

// Refresh verifies the refresh JWT, finds the DB record by JTI & hash, and rotates it.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, deviceInfo string) (*auth.TokenPair, error) {
	claims, err := s.jwt.VerifyToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}
	if claims["typ"] != string(auth.RefreshToken) {
		return nil, fmt.Errorf("not a refresh token")
	}
	jti, ok := claims["jti"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid token jti")
	}
	hashed := auth.HashToken(refreshToken)

	var rt model.RefreshToken
	err = s.db.NewSelect().Model(&rt).Where("jti = ? AND token_hash = ? AND revoked = false AND expires_at > now()", jti, hashed).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh token not found or revoked")
	}

	var u model.User
	err = s.db.NewSelect().Model(&u).Where("id = ?", rt.UserID).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}

	// rotate: revoke the old token, issue and store a new pair
	_, _ = s.db.NewUpdate().Model(&model.RefreshToken{Revoked: true}).Column("revoked").Where("id = ?", rt.ID).Exec(ctx)

	pair, err := s.jwt.GenerateTokenPair(u.ID.String(), s.cfg.AccessTokenTTL, s.cfg.RefreshTokenTTL, u.TokenVersion, u.Roles)
	if err != nil {
		return nil, err
	}
	if err := s.storeRefreshToken(ctx, u.ID, pair.RefreshToken, pair.RefreshExp, pair.JTI, deviceInfo); err != nil {
		return nil, err
	}

	return pair, nil
}

// Logout revokes a refresh token by its JTI.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.jwt.VerifyToken(refreshToken)
	if err != nil {
		return err
	}
	jti, ok := claims["jti"].(string)
	if !ok {
		return fmt.Errorf("invalid jti")
	}
	_, err = s.db.NewUpdate().Model(&model.RefreshToken{Revoked: true}).Column("revoked").Where("jti = ?", jti).Exec(ctx)
	return err
}

func (s *AuthService) CheckTokenVersion(ctx context.Context, userID string, tokenVersion int) (bool, error) {
	var user model.User
	err := s.db.NewSelect().Model(&user).Where("id = ?", userID).Scan(ctx)
	if err != nil {
		return false, err
	}
	return user.TokenVersion == tokenVersion, nil
}
