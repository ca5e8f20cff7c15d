package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/congo-pay/bank_ledger/internal/identity"
)

type recordingOpener struct {
	opened []int64
}

func (r *recordingOpener) OpenDefault(_ context.Context, userID int64) error {
	r.opened = append(r.opened, userID)
	return nil
}

func TestIssuer_RoundTrip(t *testing.T) {
	iss, err := NewIssuer("secret", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	token, exp, err := iss.Issue(identity.User{ID: 42, Email: "a@example.com", Role: identity.RoleAdmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := iss.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != 42 || claims.Role != identity.RoleAdmin || claims.Email != "a@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.ExpiresAt.Unix() != exp.Unix() {
		t.Fatalf("expected expiry %v, got %v", exp, claims.ExpiresAt)
	}
}

func TestIssuer_RejectsForeignSecretAndExpiry(t *testing.T) {
	iss, _ := NewIssuer("secret", time.Minute)
	other, _ := NewIssuer("other", time.Minute)

	token, _, err := other.Issue(identity.User{ID: 1})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := iss.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for forged token, got %v", err)
	}

	token, _, _ = iss.Issue(identity.User{ID: 1})
	iss.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := iss.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}

	if _, err := iss.Verify("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestNewIssuer_RequiresSecret(t *testing.T) {
	if _, err := NewIssuer("", time.Hour); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestService_RegisterLoginMe(t *testing.T) {
	ctx := context.Background()
	ids := identity.NewServiceWithCost(identity.NewMemoryRepository(), bcrypt.MinCost)
	iss, _ := NewIssuer("secret", time.Hour)
	opener := &recordingOpener{}
	svc := NewService(ids, iss, opener)

	user, err := svc.Register(ctx, identity.Registration{Email: "erin@example.com", Password: "long-enough", Name: "Erin", Role: identity.RoleAdmin})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != identity.RoleCustomer {
		t.Fatalf("self registration must not grant %q", user.Role)
	}
	if len(opener.opened) != 1 || opener.opened[0] != user.ID {
		t.Fatalf("expected accounts opened for %d, got %v", user.ID, opener.opened)
	}

	token, err := svc.Login(ctx, "erin@example.com", "long-enough")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := iss.Verify(token.Value)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	me, err := svc.Me(ctx, claims.UserID)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.Email != "erin@example.com" || me.Name != "Erin" {
		t.Fatalf("unexpected profile %+v", me)
	}

	if _, err := svc.Login(ctx, "erin@example.com", "wrong-password"); !errors.Is(err, identity.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
