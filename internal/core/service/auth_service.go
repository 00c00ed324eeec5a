package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/webgate/authportal/internal/core/domain"
	"github.com/webgate/authportal/internal/core/ports"
)

// AuthService implements registration and login.
//
// The uniqueness check and the append of a new account run inside a single
// UserStore.Update call, so concurrent registrations for one email cannot
// both succeed. Password hashing happens before that critical section.
type AuthService struct {
	store   ports.UserStore
	hasher  ports.PasswordHasher
	captcha ports.CaptchaVerifier
	audit   ports.AuditSink
	log     zerolog.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	store ports.UserStore,
	hasher ports.PasswordHasher,
	captcha ports.CaptchaVerifier,
	audit ports.AuditSink,
	log zerolog.Logger,
) *AuthService {
	if audit == nil {
		audit = discardAudit{}
	}
	return &AuthService{
		store:   store,
		hasher:  hasher,
		captcha: captcha,
		audit:   audit,
		log:     log,
	}
}

// Register creates a new account after the captcha and uniqueness checks pass.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	account, err := s.register(ctx, in)
	s.record(domain.EventRegister, in.Email, in.RemoteIP, err)
	return account, err
}

func (s *AuthService) register(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	if in.CaptchaToken == "" {
		return nil, domain.ErrCaptchaMissing
	}
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := s.captcha.Verify(ctx, in.CaptchaToken, in.RemoteIP); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	account := domain.Account{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	}

	err = s.store.Update(ctx, func(accounts []domain.Account) ([]domain.Account, error) {
		if _, exists := domain.FindByEmail(accounts, account.Email); exists {
			return nil, domain.ErrEmailTaken
		}
		return append(accounts, account), nil
	})
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// Login checks the captcha and the credentials and returns the identity to
// bind to a new session.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*domain.Identity, error) {
	identity, err := s.login(ctx, in)
	s.record(domain.EventLogin, in.Email, in.RemoteIP, err)
	return identity, err
}

func (s *AuthService) login(ctx context.Context, in ports.LoginInput) (*domain.Identity, error) {
	if in.CaptchaToken == "" {
		return nil, domain.ErrCaptchaMissing
	}
	if in.Email == "" || in.Password == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := s.captcha.Verify(ctx, in.CaptchaToken, in.RemoteIP); err != nil {
		return nil, err
	}

	account, ok := domain.FindByEmail(s.store.Load(ctx), in.Email)
	if !ok {
		// Spend the same bcrypt time as a real comparison.
		s.hasher.Verify(in.Password, s.placeholderHash())
		return nil, domain.ErrUnknownEmail
	}

	if !s.hasher.Verify(in.Password, account.PasswordHash) {
		return nil, domain.ErrBadPassword
	}

	identity := account.Identity()
	return &identity, nil
}

// Logout records the end of a session. Destroying the session itself is the
// SessionManager's job.
func (s *AuthService) Logout(_ context.Context, identity domain.Identity, remoteIP string) {
	s.record(domain.EventLogout, identity.Email, remoteIP, nil)
}

func (s *AuthService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(ulid.Make().String())
		if err != nil {
			s.log.Warn().Err(err).Msg("could not prepare placeholder hash")
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *AuthService) record(kind domain.AuthEventKind, email, remoteIP string, err error) {
	reason := domain.Reason(err)

	var ev *zerolog.Event
	switch {
	case err == nil:
		ev = s.log.Info()
	case errors.Is(err, domain.ErrStorage), reason == "error":
		ev = s.log.Error().Err(err)
	default:
		ev = s.log.Warn()
	}
	ev.Str("event", string(kind)).
		Str("email", email).
		Str("remote_ip", remoteIP).
		Str("outcome", reason).
		Msg("auth attempt")

	s.audit.Record(domain.AuthEvent{
		ID:         ulid.Make().String(),
		Kind:       kind,
		Outcome:    reason,
		Email:      email,
		RemoteIP:   remoteIP,
		OccurredAt: time.Now().UTC(),
	})
}

type discardAudit struct{}

func (discardAudit) Record(domain.AuthEvent) {}
