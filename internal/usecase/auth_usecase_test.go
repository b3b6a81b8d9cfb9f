package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"clinic-management-api/config"
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/delivery/http/middleware"
	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/pkg/jwt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// memTokenStore is an in-memory allow-list keyed by token ID.
type memTokenStore struct {
	mu      sync.Mutex
	access  map[string]uuid.UUID
	refresh map[string]uuid.UUID
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{access: map[string]uuid.UUID{}, refresh: map[string]uuid.UUID{}}
}

func (s *memTokenStore) Store(ctx context.Context, userID uuid.UUID, accessID string, accessTTL time.Duration, refreshID string, refreshTTL time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access[accessID] = userID
	s.refresh[refreshID] = userID
	return nil
}

func (s *memTokenStore) IsAccessValid(ctx context.Context, userID uuid.UUID, accessID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.access[accessID]
	return ok && owner == userID, nil
}

func (s *memTokenStore) ConsumeRefresh(ctx context.Context, userID uuid.UUID, refreshID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.refresh[refreshID]
	if !ok || owner != userID {
		return false, nil
	}
	delete(s.refresh, refreshID)
	return true, nil
}

func (s *memTokenStore) Revoke(ctx context.Context, userID uuid.UUID, accessID, refreshID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.access, accessID)
	if refreshID != "" {
		delete(s.refresh, refreshID)
	}
	return nil
}

func (s *memTokenStore) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, owner := range s.access {
		if owner == userID {
			delete(s.access, id)
		}
	}
	for id, owner := range s.refresh {
		if owner == userID {
			delete(s.refresh, id)
		}
	}
	return nil
}

type authFixture struct {
	clinic  entity.Clinic
	user    entity.User
	users   *mockUserRepo
	clinics *mockClinicRepo
	tokens  *memTokenStore
	jwt     *jwt.JWTService
	uc      *authUsecase
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	clinic := entity.Clinic{ID: uuid.New(), Name: "Northside", Code: "NORTH", Email: "front@north.test", IsActive: true}
	user := entity.User{
		ID:       uuid.New(),
		ClinicID: &clinic.ID,
		Username: "frontdesk",
		Email:    "desk@north.test",
		Password: string(hash),
		Role:     entity.RoleSecretary,
		IsActive: true,
	}

	f := &authFixture{
		clinic:  clinic,
		user:    user,
		users:   newMockUserRepo(user),
		clinics: newMockClinicRepo(clinic),
		tokens:  newMemTokenStore(),
		jwt: jwt.NewJWTService(config.JWTConfig{
			Secret:        "test-secret",
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 24 * time.Hour,
		}),
	}
	f.uc = NewAuthUsecase(&fakeTx{}, testLogger(), f.users, f.clinics, f.jwt, f.tokens, time.Second).(*authUsecase)
	f.uc.now = fixedClock(apptNow)
	return f
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := f.uc.Login(context.Background(), &dto.LoginRequest{ClinicCode: "north", Username: "frontdesk", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.TokenType != "Bearer" || resp.ExpiresIn != int64((15*time.Minute).Seconds()) {
		t.Errorf("token response = %+v", resp)
	}

	claims, err := f.jwt.ValidateToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("access token does not validate: %v", err)
	}
	if claims.UserID != f.user.ID || claims.ClinicID == nil || *claims.ClinicID != f.clinic.ID || claims.TokenType != jwt.AccessToken {
		t.Errorf("claims = %+v", claims)
	}
	if ok, _ := f.tokens.IsAccessValid(context.Background(), f.user.ID, claims.TokenID); !ok {
		t.Error("access token not stored in the allow-list")
	}
	if got := f.users.lastLogin[f.user.ID]; !got.Equal(apptNow) {
		t.Errorf("last login = %v, want %v", got, apptNow)
	}
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *authFixture)
		req     dto.LoginRequest
		wantErr error
	}{
		{
			name:    "wrong password",
			req:     dto.LoginRequest{ClinicCode: "NORTH", Username: "frontdesk", Password: "nope"},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:    "unknown clinic code",
			req:     dto.LoginRequest{ClinicCode: "SOUTH", Username: "frontdesk", Password: "s3cret-pass"},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:    "clinic staff without clinic code",
			req:     dto.LoginRequest{Email: "desk@north.test", Password: "s3cret-pass"},
			wantErr: ErrInvalidCredentials,
		},
		{
			name: "inactive user",
			mutate: func(f *authFixture) {
				u := f.users.items[f.user.ID]
				u.IsActive = false
				f.users.items[u.ID] = u
			},
			req:     dto.LoginRequest{ClinicCode: "NORTH", Username: "frontdesk", Password: "s3cret-pass"},
			wantErr: ErrUserInactive,
		},
		{
			name: "inactive clinic",
			mutate: func(f *authFixture) {
				c := f.clinics.items[f.clinic.ID]
				c.IsActive = false
				f.clinics.items[c.ID] = c
			},
			req:     dto.LoginRequest{ClinicCode: "NORTH", Username: "frontdesk", Password: "s3cret-pass"},
			wantErr: ErrClinicInactive,
		},
		{
			name:    "database error",
			mutate:  func(f *authFixture) { f.users.findErr = errDatabase },
			req:     dto.LoginRequest{ClinicCode: "NORTH", Username: "frontdesk", Password: "s3cret-pass"},
			wantErr: errDatabase,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			if tt.mutate != nil {
				tt.mutate(f)
			}

			if _, err := f.uc.Login(context.Background(), &tt.req); !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if len(f.tokens.access) != 0 {
				t.Error("no token may be issued on a failed login")
			}
		})
	}
}

func TestLoginTimesOut(t *testing.T) {
	f := newAuthFixture(t)
	f.users.delay = 200 * time.Millisecond
	f.uc.loginTimeout = 20 * time.Millisecond

	_, err := f.uc.Login(context.Background(), &dto.LoginRequest{ClinicCode: "NORTH", Username: "frontdesk", Password: "s3cret-pass"})
	if !errors.Is(err, ErrServiceTimeout) {
		t.Fatalf("err = %v, want ErrServiceTimeout", err)
	}
}

func TestLoginTimeoutFallback(t *testing.T) {
	f := newAuthFixture(t)
	for _, configured := range []time.Duration{0, -time.Second} {
		uc := NewAuthUsecase(&fakeTx{}, testLogger(), f.users, f.clinics, f.jwt, f.tokens, configured).(*authUsecase)
		if uc.loginTimeout != 5*time.Second {
			t.Errorf("timeout %v fell back to %v, want 5s", configured, uc.loginTimeout)
		}
	}
}

func TestRefreshTokenIsSingleUse(t *testing.T) {
	f := newAuthFixture(t)
	login, err := f.uc.Login(context.Background(), &dto.LoginRequest{ClinicCode: "NORTH", Username: "frontdesk", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	rotated, err := f.uc.RefreshToken(context.Background(), &dto.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if rotated.RefreshToken == login.RefreshToken {
		t.Error("refresh must rotate the token")
	}

	if _, err := f.uc.RefreshToken(context.Background(), &dto.RefreshTokenRequest{RefreshToken: login.RefreshToken}); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("replayed refresh: err = %v, want ErrTokenRevoked", err)
	}
	if _, err := f.uc.RefreshToken(context.Background(), &dto.RefreshTokenRequest{RefreshToken: login.AccessToken}); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("access token as refresh: err = %v, want ErrInvalidToken", err)
	}
	if _, err := f.uc.RefreshToken(context.Background(), &dto.RefreshTokenRequest{RefreshToken: "garbage"}); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token: err = %v, want ErrInvalidToken", err)
	}
}

func TestLogoutRevokesBothTokens(t *testing.T) {
	f := newAuthFixture(t)
	login, err := f.uc.Login(context.Background(), &dto.LoginRequest{ClinicCode: "NORTH", Username: "frontdesk", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	access, _ := f.jwt.ValidateToken(login.AccessToken)

	ctx := middleware.ContextWithIdentity(context.Background(), middleware.Identity{
		UserID:   f.user.ID,
		ClinicID: f.user.ClinicID,
		Role:     f.user.Role,
		TokenID:  access.TokenID,
	})
	if err := f.uc.Logout(ctx, &dto.LogoutRequest{RefreshToken: login.RefreshToken}); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if ok, _ := f.tokens.IsAccessValid(context.Background(), f.user.ID, access.TokenID); ok {
		t.Error("access token still valid after logout")
	}
	if _, err := f.uc.RefreshToken(context.Background(), &dto.RefreshTokenRequest{RefreshToken: login.RefreshToken}); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("refresh after logout: err = %v", err)
	}

	if err := f.uc.Logout(context.Background(), nil); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("anonymous logout: err = %v", err)
	}
}
