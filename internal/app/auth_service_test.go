package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"vibracional/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

type mockUserRepo struct {
	getByEmailFn     func(ctx context.Context, email string) (*domain.User, error)
	getByIDFn        func(ctx context.Context, id int64) (*domain.User, error)
	createFn         func(ctx context.Context, u domain.User) (*domain.User, error)
	updateTimezoneFn func(ctx context.Context, id int64, tz string) error
	countFn          func(ctx context.Context) (int, error)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	u.ID = 1
	return &u, nil
}

func (m *mockUserRepo) UpdateTimezone(ctx context.Context, id int64, tz string) error {
	if m.updateTimezoneFn != nil {
		return m.updateTimezoneFn(ctx, id, tz)
	}
	return nil
}

func (m *mockUserRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

type mockSessionRepo struct {
	createFn        func(ctx context.Context, s domain.Session) error
	getByTokenFn    func(ctx context.Context, token string) (*domain.Session, error)
	deleteFn        func(ctx context.Context, token string) error
	deleteExpiredFn func(ctx context.Context, now time.Time) (int64, error)
}

func (m *mockSessionRepo) Create(ctx context.Context, s domain.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, s)
	}
	return nil
}

func (m *mockSessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	if m.getByTokenFn != nil {
		return m.getByTokenFn(ctx, token)
	}
	return nil, nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, token string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, token)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx, now)
	}
	return 0, nil
}

func TestAuthService_Login_Success(t *testing.T) {
	ctx := context.Background()
	password := "testpass123"
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)

	users := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			if email != "ana@example.com" {
				t.Errorf("expected normalized email, got %q", email)
			}
			return &domain.User{ID: 1, Email: email, PasswordHash: string(hash)}, nil
		},
	}

	var created domain.Session
	sessions := &mockSessionRepo{
		createFn: func(ctx context.Context, s domain.Session) error {
			created = s
			return nil
		},
	}

	svc := NewAuthService(users, sessions, time.Hour)
	token, err := svc.Login(ctx, "  Ana@Example.com ", password, "test-agent", "10.0.0.1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token == "" || created.Token != token {
		t.Errorf("expected stored token %q, got %q", token, created.Token)
	}
	if created.UserID != 1 || created.UserAgent != "test-agent" || created.IP != "10.0.0.1" {
		t.Errorf("unexpected session %+v", created)
	}
	if got := created.ExpiresAt.Sub(created.CreatedAt); got != time.Hour {
		t.Errorf("expected ttl 1h, got %v", got)
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.MinCost)

	users := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: 1, Email: email, PasswordHash: string(hash)}, nil
		},
	}

	svc := NewAuthService(users, &mockSessionRepo{}, 0)
	_, err := svc.Login(ctx, "ana@example.com", "wrongpass", "", "")
	if err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_SSOAccountHasNoPassword(t *testing.T) {
	users := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: 1, Email: email}, nil
		},
	}
	svc := NewAuthService(users, &mockSessionRepo{}, 0)
	if _, err := svc.Login(context.Background(), "sso@example.com", "", "", ""); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		tz       string
		existing bool
		wantErr  error
	}{
		{name: "ok", email: "Ana@Example.com", password: "secret1", tz: "America/Sao_Paulo"},
		{name: "bad email", email: "not-an-email", password: "secret1", wantErr: ErrInvalidSignup},
		{name: "short password", email: "ana@example.com", password: "123", wantErr: ErrInvalidSignup},
		{name: "bad timezone", email: "ana@example.com", password: "secret1", tz: "Mars/Olympus", wantErr: ErrInvalidSignup},
		{name: "taken", email: "ana@example.com", password: "secret1", existing: true, wantErr: ErrEmailTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stored domain.User
			users := &mockUserRepo{
				getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
					if tt.existing {
						return &domain.User{ID: 9, Email: email}, nil
					}
					return nil, nil
				},
				createFn: func(ctx context.Context, u domain.User) (*domain.User, error) {
					stored = u
					u.ID = 7
					return &u, nil
				},
			}
			svc := NewAuthService(users, &mockSessionRepo{}, 0)

			u, err := svc.Register(context.Background(), tt.email, tt.password, " Ana ", tt.tz)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if u.ID != 7 || stored.Email != "ana@example.com" || stored.Name != "Ana" {
				t.Errorf("unexpected user %+v", stored)
			}
			if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(tt.password)) != nil {
				t.Error("password hash does not match")
			}
		})
	}
}

func TestAuthService_ValidateSession_Valid(t *testing.T) {
	ctx := context.Background()
	token := "validtoken"

	sessions := &mockSessionRepo{
		getByTokenFn: func(ctx context.Context, tok string) (*domain.Session, error) {
			return &domain.Session{
				Token:     token,
				UserID:    1,
				UserAgent: "ua",
				ExpiresAt: time.Now().Add(1 * time.Hour),
			}, nil
		},
	}

	users := &mockUserRepo{
		getByIDFn: func(ctx context.Context, id int64) (*domain.User, error) {
			return &domain.User{ID: 1, Email: "ana@example.com"}, nil
		},
	}

	svc := NewAuthService(users, sessions, 0)
	user, err := svc.ValidateSession(ctx, token, "ua")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.Email != "ana@example.com" {
		t.Errorf("expected email 'ana@example.com', got %s", user.Email)
	}
}

func TestAuthService_ValidateSession_Missing(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, &mockSessionRepo{}, 0)
	if _, err := svc.ValidateSession(context.Background(), "nope", ""); err != ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAuthService_ValidateSession_Expired(t *testing.T) {
	tests := []struct {
		name      string
		expiresIn time.Duration
		userAgent string
	}{
		{name: "expired", expiresIn: -time.Hour, userAgent: "ua"},
		{name: "user agent changed", expiresIn: time.Hour, userAgent: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deleted := false
			sessions := &mockSessionRepo{
				getByTokenFn: func(ctx context.Context, tok string) (*domain.Session, error) {
					return &domain.Session{
						Token:     tok,
						UserID:    1,
						UserAgent: "ua",
						ExpiresAt: time.Now().Add(tt.expiresIn),
					}, nil
				},
				deleteFn: func(ctx context.Context, tok string) error {
					deleted = true
					return nil
				},
			}

			svc := NewAuthService(&mockUserRepo{}, sessions, 0)
			_, err := svc.ValidateSession(context.Background(), "tok", tt.userAgent)
			if err != ErrSessionExpired {
				t.Errorf("expected ErrSessionExpired, got %v", err)
			}
			if !deleted {
				t.Error("expected session to be deleted")
			}
		})
	}
}

func TestAuthService_LoginWithUser_ExistingUser(t *testing.T) {
	users := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: 3, Email: email}, nil
		},
		createFn: func(ctx context.Context, u domain.User) (*domain.User, error) {
			t.Error("existing user must not be created again")
			return nil, errors.New("unexpected")
		},
	}
	var userID int64
	sessions := &mockSessionRepo{
		createFn: func(ctx context.Context, s domain.Session) error {
			userID = s.UserID
			return nil
		},
	}

	svc := NewAuthService(users, sessions, 0)
	if _, err := svc.LoginWithUser(context.Background(), "SSO@example.com", "Sso", "", ""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if userID != 3 {
		t.Errorf("expected session for user 3, got %d", userID)
	}
}

func TestAuthService_LoginWithUser_NewUser(t *testing.T) {
	var created domain.User
	users := &mockUserRepo{
		createFn: func(ctx context.Context, u domain.User) (*domain.User, error) {
			created = u
			u.ID = 2
			return &u, nil
		},
	}

	svc := NewAuthService(users, &mockSessionRepo{}, 0)
	token, err := svc.LoginWithUser(context.Background(), "new@example.com", "New", "", "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token == "" {
		t.Error("expected token")
	}
	if created.Email != "new@example.com" || created.PasswordHash != "" {
		t.Errorf("unexpected provisioned user %+v", created)
	}
}

func TestAuthService_LoginWithUser_CreateRace(t *testing.T) {
	calls := 0
	users := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			calls++
			if calls == 1 {
				return nil, nil
			}
			return &domain.User{ID: 5, Email: email}, nil
		},
		createFn: func(ctx context.Context, u domain.User) (*domain.User, error) {
			return nil, errors.New("duplicate key")
		},
	}

	svc := NewAuthService(users, &mockSessionRepo{}, 0)
	if _, err := svc.LoginWithUser(context.Background(), "race@example.com", "", "", ""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestAuthService_UpdateTimezone(t *testing.T) {
	var got string
	users := &mockUserRepo{
		updateTimezoneFn: func(ctx context.Context, id int64, tz string) error {
			got = tz
			return nil
		},
	}
	svc := NewAuthService(users, &mockSessionRepo{}, 0)

	if err := svc.UpdateTimezone(context.Background(), 1, "Europe/Lisbon"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "Europe/Lisbon" {
		t.Errorf("expected Europe/Lisbon, got %q", got)
	}
	if err := svc.UpdateTimezone(context.Background(), 1, "Nowhere/City"); !errors.Is(err, ErrInvalidSignup) {
		t.Errorf("expected ErrInvalidSignup, got %v", err)
	}
}

func TestAuthService_PurgeExpiredSessions(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	sessions := &mockSessionRepo{
		deleteExpiredFn: func(ctx context.Context, at time.Time) (int64, error) {
			if !at.Equal(now) {
				t.Errorf("expected purge at %v, got %v", now, at)
			}
			return 4, nil
		},
	}
	svc := NewAuthService(&mockUserRepo{}, sessions, 0)
	svc.now = func() time.Time { return now }

	n, err := svc.PurgeExpiredSessions(context.Background())
	if err != nil || n != 4 {
		t.Errorf("expected 4 purged, got %d (%v)", n, err)
	}
}
