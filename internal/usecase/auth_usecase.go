package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"clinic-management-api/internal/converter"
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/domain/repository"
	"clinic-management-api/internal/service"
	"clinic-management-api/pkg/jwt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrServiceTimeout     = errors.New("service did not respond in time, try again")
)

const defaultLoginTimeout = 5 * time.Second

type AuthUsecase interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, req *dto.LogoutRequest) error
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	GetCurrentUser(ctx context.Context) (*dto.UserResponse, error)
}

type authUsecase struct {
	txManager    repository.TxManager
	log          *logrus.Logger
	userRepo     repository.UserRepository
	clinicRepo   repository.ClinicRepository
	jwtService   *jwt.JWTService
	tokens       service.TokenStore
	loginTimeout time.Duration
	now          func() time.Time
}

func NewAuthUsecase(
	txManager repository.TxManager,
	log *logrus.Logger,
	userRepo repository.UserRepository,
	clinicRepo repository.ClinicRepository,
	jwtService *jwt.JWTService,
	tokens service.TokenStore,
	loginTimeout time.Duration,
) AuthUsecase {
	if loginTimeout <= 0 {
		loginTimeout = defaultLoginTimeout
	}
	return &authUsecase{
		txManager:    txManager,
		log:          log,
		userRepo:     userRepo,
		clinicRepo:   clinicRepo,
		jwtService:   jwtService,
		tokens:       tokens,
		loginTimeout: loginTimeout,
		now:          time.Now,
	}
}

type loginLookup struct {
	user *entity.User
	err  error
}

// Login bounds the user lookup by the login timeout so a stalled database
// surfaces as ErrServiceTimeout instead of a hung request.
func (u *authUsecase) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, u.loginTimeout)
	defer cancel()

	done := make(chan loginLookup, 1)
	go func() {
		user, err := u.findLoginUser(lookupCtx, req)
		done <- loginLookup{user: user, err: err}
	}()

	var result loginLookup
	select {
	case result = <-done:
	case <-lookupCtx.Done():
		u.log.Warnf("Login lookup did not finish within %s", u.loginTimeout)
		return nil, ErrServiceTimeout
	}
	if result.err != nil {
		return nil, result.err
	}

	user := result.user
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	resp, err := u.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	now := u.now()
	if err := u.userRepo.UpdateLastLogin(u.txManager.DB(ctx), user.ID, now); err != nil {
		u.log.Warnf("Failed to update last login: %+v", err)
	} else {
		user.LastLoginAt = &now
	}

	resp.User = converter.UserToResponse(user)
	return resp, nil
}

func (u *authUsecase) findLoginUser(ctx context.Context, req *dto.LoginRequest) (*entity.User, error) {
	db := u.txManager.DB(ctx)

	var clinicID *uuid.UUID
	if req.ClinicCode != "" {
		clinic, err := u.clinicRepo.FindByCode(db, strings.ToUpper(req.ClinicCode))
		if err != nil {
			u.log.Warnf("Failed to find clinic by code: %+v", err)
			return nil, err
		}
		if clinic == nil {
			return nil, nil
		}
		if !clinic.IsActive {
			return nil, ErrClinicInactive
		}
		clinicID = &clinic.ID
	}

	user, err := u.userRepo.FindByLogin(db, clinicID, req.Identifier())
	if err != nil {
		u.log.Warnf("Failed to find user by login: %+v", err)
		return nil, err
	}
	return user, nil
}

// Logout revokes the presented access token and, when given, the caller's refresh token.
func (u *authUsecase) Logout(ctx context.Context, req *dto.LogoutRequest) error {
	identity, err := callerFromContext(ctx)
	if err != nil {
		return err
	}

	refreshID := ""
	if req != nil && req.RefreshToken != "" {
		claims, err := u.jwtService.ValidateToken(req.RefreshToken)
		if err == nil && claims.TokenType == jwt.RefreshToken && claims.UserID == identity.UserID {
			refreshID = claims.TokenID
		}
	}

	if err := u.tokens.Revoke(ctx, identity.UserID, identity.TokenID, refreshID); err != nil {
		u.log.Warnf("Failed to revoke tokens: %+v", err)
		return err
	}
	return nil
}

// RefreshToken rotates the pair. The presented refresh token is single-use.
func (u *authUsecase) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	claims, err := u.jwtService.ValidateToken(req.RefreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != jwt.RefreshToken {
		return nil, ErrInvalidToken
	}

	consumed, err := u.tokens.ConsumeRefresh(ctx, claims.UserID, claims.TokenID)
	if err != nil {
		u.log.Warnf("Failed to consume refresh token: %+v", err)
		return nil, err
	}
	if !consumed {
		return nil, ErrTokenRevoked
	}

	db := u.txManager.DB(ctx)
	user, err := u.userRepo.FindByID(db, claims.UserID)
	if err != nil {
		u.log.Warnf("Failed to find user by ID: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if user.ClinicID != nil {
		clinic, err := u.clinicRepo.FindByID(db, *user.ClinicID)
		if err != nil {
			u.log.Warnf("Failed to find clinic: %+v", err)
			return nil, err
		}
		if clinic == nil || !clinic.IsActive {
			return nil, ErrClinicInactive
		}
	}

	return u.issueTokens(ctx, user)
}

func (u *authUsecase) GetCurrentUser(ctx context.Context) (*dto.UserResponse, error) {
	identity, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.FindByID(u.txManager.DB(ctx), identity.UserID)
	if err != nil {
		u.log.Warnf("Failed to find user by ID: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return converter.UserToResponse(user), nil
}

func (u *authUsecase) issueTokens(ctx context.Context, user *entity.User) (*dto.TokenResponse, error) {
	sub := jwt.Subject{
		UserID:   user.ID,
		ClinicID: user.ClinicID,
		Role:     user.Role,
		Username: user.Username,
		Email:    user.Email,
	}

	accessToken, accessTokenID, err := u.jwtService.GenerateAccessToken(sub)
	if err != nil {
		u.log.Warnf("Failed to generate access token: %+v", err)
		return nil, err
	}

	refreshToken, refreshTokenID, err := u.jwtService.GenerateRefreshToken(sub)
	if err != nil {
		u.log.Warnf("Failed to generate refresh token: %+v", err)
		return nil, err
	}

	err = u.tokens.Store(ctx, user.ID, accessTokenID, u.jwtService.GetAccessExpiry(), refreshTokenID, u.jwtService.GetRefreshExpiry())
	if err != nil {
		u.log.Warnf("Failed to store tokens in Redis: %+v", err)
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(u.jwtService.GetAccessExpiry().Seconds()),
	}, nil
}
