package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/webgate/authportal/internal/core/domain"
	"github.com/webgate/authportal/internal/core/ports"
)

// ContactService accepts contact-form messages from signed-in users.
type ContactService struct {
	repo    ports.MessageRepository
	captcha ports.CaptchaVerifier
	audit   ports.AuditSink
	policy  *bluemonday.Policy
	log     zerolog.Logger
}

func NewContactService(
	repo ports.MessageRepository,
	captcha ports.CaptchaVerifier,
	audit ports.AuditSink,
	log zerolog.Logger,
) *ContactService {
	if audit == nil {
		audit = discardAudit{}
	}
	return &ContactService{
		repo:    repo,
		captcha: captcha,
		audit:   audit,
		policy:  bluemonday.StrictPolicy(),
		log:     log,
	}
}

// Submit verifies the captcha, strips all markup from the fields and appends
// the message.
func (s *ContactService) Submit(ctx context.Context, in ports.ContactInput) (*domain.ContactMessage, error) {
	msg, err := s.submit(ctx, in)

	reason := domain.Reason(err)
	if err != nil {
		s.log.Warn().Err(err).Str("sender", in.Sender.Email).Str("outcome", reason).Msg("contact message refused")
	} else {
		s.log.Info().Str("id", msg.ID).Str("sender", in.Sender.Email).Msg("contact message stored")
	}
	s.audit.Record(domain.AuthEvent{
		ID:         ulid.Make().String(),
		Kind:       domain.EventContact,
		Outcome:    reason,
		Email:      in.Sender.Email,
		RemoteIP:   in.RemoteIP,
		OccurredAt: time.Now().UTC(),
	})

	return msg, err
}

func (s *ContactService) submit(ctx context.Context, in ports.ContactInput) (*domain.ContactMessage, error) {
	if in.CaptchaToken == "" {
		return nil, domain.ErrCaptchaMissing
	}
	if strings.TrimSpace(in.Message) == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := s.captcha.Verify(ctx, in.CaptchaToken, in.RemoteIP); err != nil {
		return nil, err
	}

	msg := &domain.ContactMessage{
		ID:        ulid.Make().String(),
		Name:      s.sanitize(in.Name),
		Email:     s.sanitize(in.Email),
		Message:   s.sanitize(in.Message),
		SenderID:  in.Sender.Email,
		CreatedAt: time.Now().UTC(),
	}
	if msg.Message == "" {
		return nil, domain.ErrInvalidInput
	}

	if err := s.repo.Append(ctx, msg); err != nil {
		return nil, fmt.Errorf("append contact message: %w: %v", domain.ErrStorage, err)
	}
	return msg, nil
}

func (s *ContactService) sanitize(v string) string {
	return strings.TrimSpace(s.policy.Sanitize(v))
}
