package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/zakaz/internal/audit"
	"github.com/shaiso/zakaz/internal/domain"
	"github.com/shaiso/zakaz/internal/store/memstore"
)

func newSessions(t *testing.T) (*Sessions, *memstore.Store, *time.Time) {
	t.Helper()
	s := memstore.New()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	sess := NewSessions(Config{Users: s.Users(), Sessions: s.Sessions()})
	sess.now = func() time.Time { return now }
	return sess, s, &now
}

func putUser(t *testing.T, s *memstore.Store, email, password string, active bool) domain.User {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	u := domain.User{
		ID:           uuid.New(),
		Email:        email,
		FullName:     "Мария Орлова",
		Role:         domain.RoleEngineer,
		Active:       active,
		PasswordHash: hash,
	}
	s.PutUser(u)
	return u
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	sum := sha256.Sum256([]byte("legacy-pass"))
	legacy := hex.EncodeToString(sum[:])

	tests := []struct {
		name     string
		hash     string
		password string
		want     bool
	}{
		{"bcrypt match", hash, "s3cret", true},
		{"bcrypt mismatch", hash, "wrong", false},
		{"legacy match", legacy, "legacy-pass", true},
		{"legacy mismatch", legacy, "other", false},
		{"empty hash", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifyPassword(tt.hash, tt.password); got != tt.want {
				t.Errorf("VerifyPassword = %v, want %v", got, tt.want)
			}
		})
	}

	if IsLegacyHash(hash) || !IsLegacyHash(legacy) {
		t.Error("IsLegacyHash misclassified hashes")
	}
}

func TestSessions_LoginResolveLogout(t *testing.T) {
	sessions, s, now := newSessions(t)
	u := putUser(t, s, "maria@zakaz.test", "pa55word", true)
	ctx := context.Background()

	res, err := sessions.Login(ctx, "maria@zakaz.test", "pa55word", audit.RequestMeta{IPAddress: "10.1.1.1", UserAgent: "ua"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Token == "" {
		t.Fatal("empty token")
	}
	if want := now.Add(DefaultSessionTTL); !res.Session.ExpiresAt.Equal(want) {
		t.Errorf("expires_at = %v, want %v", res.Session.ExpiresAt, want)
	}

	id, err := sessions.Resolve(ctx, res.Token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id.UserID != u.ID || id.Role != domain.RoleEngineer || id.Email != u.Email {
		t.Errorf("identity = %+v", id)
	}

	if err := sessions.Logout(ctx, res.Token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := sessions.Resolve(ctx, res.Token); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("after logout: err = %v", err)
	}
}

func TestSessions_LoginRejected(t *testing.T) {
	sessions, s, _ := newSessions(t)
	putUser(t, s, "active@zakaz.test", "right", true)
	putUser(t, s, "blocked@zakaz.test", "right", false)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"wrong password", "active@zakaz.test", "wrong", ErrInvalidCredentials},
		{"unknown email", "nobody@zakaz.test", "right", ErrInvalidCredentials},
		{"inactive user", "blocked@zakaz.test", "right", ErrInvalidCredentials},
		{"missing password", "active@zakaz.test", "", ErrMissingCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := sessions.Login(ctx, tt.email, tt.password, audit.RequestMeta{}); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSessions_ResolveExpired(t *testing.T) {
	sessions, s, now := newSessions(t)
	putUser(t, s, "maria@zakaz.test", "pa55word", true)
	ctx := context.Background()

	res, err := sessions.Login(ctx, "maria@zakaz.test", "pa55word", audit.RequestMeta{})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	*now = now.Add(DefaultSessionTTL + time.Minute)
	if _, err := sessions.Resolve(ctx, res.Token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expired session: err = %v", err)
	}
	if _, err := s.Sessions().GetByToken(ctx, res.Token); err == nil {
		t.Error("expired session should be deleted")
	}
}

func TestSessions_ResolveDeactivatedUser(t *testing.T) {
	sessions, s, _ := newSessions(t)
	u := putUser(t, s, "maria@zakaz.test", "pa55word", true)
	ctx := context.Background()

	res, err := sessions.Login(ctx, "maria@zakaz.test", "pa55word", audit.RequestMeta{})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	u.Active = false
	s.PutUser(u)
	if _, err := sessions.Resolve(ctx, res.Token); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestSessions_PurgeExpired(t *testing.T) {
	sessions, s, now := newSessions(t)
	putUser(t, s, "maria@zakaz.test", "pa55word", true)
	ctx := context.Background()

	for range 3 {
		if _, err := sessions.Login(ctx, "maria@zakaz.test", "pa55word", audit.RequestMeta{}); err != nil {
			t.Fatalf("Login: %v", err)
		}
	}
	*now = now.Add(DefaultSessionTTL)

	n, err := sessions.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if n != 3 {
		t.Errorf("purged %d, want 3", n)
	}
}

func TestSessions_BootstrapAdmin(t *testing.T) {
	sessions, s, _ := newSessions(t)
	ctx := context.Background()

	created, err := sessions.BootstrapAdmin(ctx, "admin@zakaz.test", "root-pass", "Администратор")
	if err != nil || !created {
		t.Fatalf("first bootstrap: created=%v err=%v", created, err)
	}
	created, err = sessions.BootstrapAdmin(ctx, "admin@zakaz.test", "root-pass", "Администратор")
	if err != nil || created {
		t.Fatalf("second bootstrap: created=%v err=%v", created, err)
	}

	u, err := s.Users().GetByEmail(ctx, "admin@zakaz.test")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if u.Role != domain.RoleAdmin || !u.Active {
		t.Errorf("admin = %+v", u)
	}
	if _, err := sessions.Login(ctx, "admin@zakaz.test", "root-pass", audit.RequestMeta{}); err != nil {
		t.Errorf("admin login: %v", err)
	}
}
