package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/employer-pool/internal/cache"
	"github.com/employer-pool/internal/config"
	"github.com/employer-pool/internal/logger"
	"github.com/employer-pool/internal/models"
	"github.com/employer-pool/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService 操作员认证服务
type AuthService struct {
	cfg          *config.Config
	operatorRepo repository.OperatorRepository
	businessRepo repository.BusinessRepository
}

// NewAuthService 创建认证服务实例
func NewAuthService(cfg *config.Config, operatorRepo repository.OperatorRepository, businessRepo repository.BusinessRepository) *AuthService {
	return &AuthService{
		cfg:          cfg,
		operatorRepo: operatorRepo,
		businessRepo: businessRepo,
	}
}

// HashPassword 使用 bcrypt 加密密码
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword 验证密码
func (s *AuthService) VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// ValidatePassword 校验密码是否符合策略
func (s *AuthService) ValidatePassword(password string) error {
	if s == nil || s.cfg == nil {
		return nil
	}
	return validatePassword(s.cfg.Security.PasswordPolicy, password)
}

// OperatorClaims JWT 声明
type OperatorClaims struct {
	OperatorID   uint   `json:"operator_id"`
	BusinessID   uint   `json:"business_id"`
	Role         string `json:"role"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// GenerateJWT 生成 JWT Token
func (s *AuthService) GenerateJWT(operator *models.Operator) (string, time.Time, error) {
	now := time.Now()
	expireHours := s.cfg.JWT.ExpireHours
	if expireHours <= 0 {
		expireHours = 24
	}
	expiresAt := now.Add(time.Duration(expireHours) * time.Hour)

	claims := OperatorClaims{
		OperatorID:   operator.ID,
		BusinessID:   operator.BusinessID,
		Role:         operator.Role,
		TokenVersion: operator.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseJWT 解析 JWT Token
func (s *AuthService) ParseJWT(tokenString string) (*OperatorClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &OperatorClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, ErrTokenInvalid
	}
	if claims, ok := token.Claims.(*OperatorClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrTokenInvalid
}

// ResolveAuthState 获取操作员鉴权快照（优先缓存）并校验令牌版本
func (s *AuthService) ResolveAuthState(ctx context.Context, claims *OperatorClaims) (*cache.OperatorAuthState, error) {
	if claims == nil || claims.OperatorID == 0 {
		return nil, ErrTokenInvalid
	}
	state, hit, err := cache.GetOperatorAuthState(ctx, claims.OperatorID)
	if err != nil {
		logger.Warnw("auth_state_cache_read_failed", "operator_id", claims.OperatorID, "error", err)
	}
	if !hit || state == nil {
		operator, err := s.operatorRepo.GetByID(claims.OperatorID)
		if err != nil {
			return nil, err
		}
		if operator == nil {
			return nil, ErrTokenInvalid
		}
		business, err := s.businessRepo.GetByID(operator.BusinessID)
		if err != nil {
			return nil, err
		}
		state = cache.BuildOperatorAuthState(operator, business)
		_ = cache.SetOperatorAuthState(ctx, state)
	}

	if state.TokenVersion != claims.TokenVersion {
		return nil, ErrTokenRevoked
	}
	if state.TokenInvalidBefore > 0 && claims.IssuedAt != nil && claims.IssuedAt.Unix() < state.TokenInvalidBefore {
		return nil, ErrTokenRevoked
	}
	return state, nil
}

// Login 操作员登录
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Operator, string, time.Time, error) {
	operator, err := s.operatorRepo.GetByEmail(strings.TrimSpace(email))
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if operator == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := s.VerifyPassword(operator.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.GenerateJWT(operator)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	operator.LastLoginAt = &now
	if err := s.operatorRepo.Update(operator); err != nil {
		return nil, "", time.Time{}, err
	}
	business, err := s.businessRepo.GetByID(operator.BusinessID)
	if err == nil {
		_ = cache.SetOperatorAuthState(ctx, cache.BuildOperatorAuthState(operator, business))
	}
	return operator, token, expiresAt, nil
}

// ChangePassword 修改密码并使旧令牌失效
func (s *AuthService) ChangePassword(ctx context.Context, operatorID uint, oldPassword, newPassword string) error {
	operator, err := s.operatorRepo.GetByID(operatorID)
	if err != nil {
		return err
	}
	if operator == nil {
		return ErrNotFound
	}
	if err := s.VerifyPassword(operator.PasswordHash, oldPassword); err != nil {
		return ErrInvalidCredentials
	}
	if err := s.ValidatePassword(newPassword); err != nil {
		return err
	}
	hashedPassword, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}

	operator.PasswordHash = hashedPassword
	now := time.Now()
	operator.TokenVersion++
	operator.TokenInvalidBefore = &now
	if err := s.operatorRepo.Update(operator); err != nil {
		return err
	}
	_ = cache.DelOperatorAuthState(ctx, operator.ID)
	return nil
}

// RegisterBusiness 创建企业及其所有者操作员
func (s *AuthService) RegisterBusiness(business *models.Business, operator *models.Operator, password string) error {
	if business == nil || operator == nil {
		return errors.New("business and operator are required")
	}
	if strings.TrimSpace(business.WalletAddress) != "" {
		if err := ValidateWalletAddress(business.WalletAddress); err != nil {
			return err
		}
	}
	if err := s.ValidatePassword(password); err != nil {
		return err
	}
	existing, err := s.operatorRepo.GetByEmail(operator.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrEmailExists
	}
	hash, err := s.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.businessRepo.Create(business); err != nil {
		return err
	}
	operator.BusinessID = business.ID
	operator.Email = strings.ToLower(strings.TrimSpace(operator.Email))
	operator.PasswordHash = hash
	return s.operatorRepo.Create(operator)
}
