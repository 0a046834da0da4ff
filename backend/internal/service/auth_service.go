package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"assessment-matrix/backend/config"
	"assessment-matrix/backend/internal/dto"
	"assessment-matrix/backend/pkg/jwt"
	"assessment-matrix/backend/pkg/redis"
)

var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
)

// TokenBlacklist Token 黑名单存储
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
}

type authService struct {
	cfg       *config.AuthConfig
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例；rdb 为 nil 时登出不写黑名单
func NewAuthService(
	cfg *config.AuthConfig,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) AuthService {
	s := &authService{
		cfg:    cfg,
		jwtMgr: jwtMgr,
		logger: logger,
	}
	if rdb != nil {
		s.blacklist = rdb
	}
	return s
}

func (s *authService) Login(_ context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 校验用户名（单教师账号）
	if s.cfg.TeacherPasswordHash == "" || req.Username != s.cfg.TeacherUsername {
		return nil, ErrInvalidCredentials
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.TeacherPasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 生成 Token
	accessToken, err := s.jwtMgr.GenerateAccessToken(req.Username)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken: accessToken,
		ExpiresIn:   int(s.jwtMgr.AccessTokenTTL().Seconds()),
		Username:    req.Username,
	}, nil
}

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.blacklist == nil || jti == "" {
		return nil
	}
	if err := s.blacklist.BlacklistToken(ctx, jti, time.Until(expiresAt)); err != nil {
		s.logger.Error("写入 Token 黑名单失败", zap.String("jti", jti), zap.Error(err))
		return err
	}
	return nil
}
