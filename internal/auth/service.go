package auth

import (
	"context"
	"time"

	"github.com/congo-pay/bank_ledger/internal/identity"
)

// AccountOpener provisions the default currency accounts of a new user.
type AccountOpener interface {
	OpenDefault(ctx context.Context, userID int64) error
}

// Service issues tokens for verified credentials.
type Service struct {
	ids      *identity.Service
	issuer   *Issuer
	accounts AccountOpener
}

func NewService(ids *identity.Service, issuer *Issuer, accounts AccountOpener) *Service {
	return &Service{ids: ids, issuer: issuer, accounts: accounts}
}

// Token is a signed bearer token and its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Register creates a customer and opens their USD and EUR accounts.
func (s *Service) Register(ctx context.Context, reg identity.Registration) (identity.User, error) {
	reg.Role = identity.RoleCustomer
	user, err := s.ids.Register(ctx, reg)
	if err != nil {
		return identity.User{}, err
	}
	if s.accounts != nil {
		if err := s.accounts.OpenDefault(ctx, user.ID); err != nil {
			return identity.User{}, err
		}
	}
	return user, nil
}

// Login validates credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (Token, error) {
	user, err := s.ids.Authenticate(ctx, email, password)
	if err != nil {
		return Token{}, err
	}
	value, exp, err := s.issuer.Issue(user)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: value, ExpiresAt: exp}, nil
}

// Me loads the profile behind an authenticated request.
func (s *Service) Me(ctx context.Context, userID int64) (identity.User, error) {
	return s.ids.Get(ctx, userID)
}
