package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/promarket/promarket/internal/domain"
	"github.com/promarket/promarket/internal/hash"
	"github.com/promarket/promarket/internal/logging"
	"github.com/promarket/promarket/internal/models"
	"github.com/promarket/promarket/internal/mykafka"
	"github.com/promarket/promarket/internal/repo"
	"github.com/promarket/promarket/internal/service/token"
)

// Revocation strategies. Set removal is the canonical policy: logout kills
// exactly the presented session and leaves the subject's other devices
// logged in. The blacklist is a compatibility fallback.
const (
	RevocationSet       = "set"
	RevocationBlacklist = "blacklist"
)

type Service struct {
	Repo           *repo.GormRepo
	Tokens         *token.Service
	Producer       *mykafka.Producer
	RevocationMode string
}

type Session struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Identity  domain.Identity `json:"identity"`
	Email     string          `json:"email"`
	Name      string          `json:"name"`
}

type RegisterManufacturerInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"company_name"`
	TaxNumber   string `json:"tax_number"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
}

type RegisterProfessionalInput struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	FullName   string `json:"full_name"`
	Profession string `json:"profession"`
}

func (s *Service) RegisterManufacturer(ctx context.Context, in RegisterManufacturerInput) (*Session, error) {
	if in.Email == "" || in.CompanyName == "" || in.TaxNumber == "" {
		return nil, fmt.Errorf("%w: missing required fields", domain.ErrValidation)
	}
	if len(in.Password) < 6 {
		return nil, fmt.Errorf("%w: password too short", domain.ErrValidation)
	}

	if _, err := s.Repo.ManufacturerByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrSubjectNotFound) {
		return nil, err
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	m := models.Manufacturer{
		Email:        in.Email,
		PasswordHash: pwHash,
		CompanyName:  in.CompanyName,
		TaxNumber:    in.TaxNumber,
		Address:      in.Address,
		Phone:        in.Phone,
		Active:       true,
	}
	if err := s.Repo.CreateManufacturer(ctx, &m); err != nil {
		return nil, err
	}

	sess, err := s.issueSession(ctx, m.ID, domain.RoleManufacturer, m.Email, m.CompanyName)
	if err != nil {
		return nil, err
	}

	s.publishUserEvent(ctx, "user_registered", sess.Identity)
	return sess, nil
}

func (s *Service) RegisterProfessional(ctx context.Context, in RegisterProfessionalInput) (*Session, error) {
	if in.Email == "" || in.FullName == "" || in.Profession == "" {
		return nil, fmt.Errorf("%w: missing required fields", domain.ErrValidation)
	}
	if len(in.Password) < 6 {
		return nil, fmt.Errorf("%w: password too short", domain.ErrValidation)
	}

	if _, err := s.Repo.ProfessionalByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrSubjectNotFound) {
		return nil, err
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	p := models.Professional{
		Email:        in.Email,
		PasswordHash: pwHash,
		FullName:     in.FullName,
		Profession:   in.Profession,
		Active:       true,
	}
	if err := s.Repo.CreateProfessional(ctx, &p); err != nil {
		return nil, err
	}

	sess, err := s.issueSession(ctx, p.ID, domain.RoleProfessional, p.Email, p.FullName)
	if err != nil {
		return nil, err
	}

	s.publishUserEvent(ctx, "user_registered", sess.Identity)
	return sess, nil
}

// Login resolves credentials for one role. Unknown email and wrong password
// share one error so responses cannot be used to enumerate accounts.
func (s *Service) Login(ctx context.Context, role domain.Role, email, password string) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "role", string(role))

	var (
		id           = domain.Identity{Role: role}
		passwordHash string
		active       bool
		name         string
	)

	switch role {
	case domain.RoleManufacturer:
		m, err := s.Repo.ManufacturerByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, domain.ErrSubjectNotFound) {
				return nil, domain.ErrInvalidCredentials
			}
			return nil, err
		}
		id.SubjectID, passwordHash, active, name = m.ID, m.PasswordHash, m.Active, m.CompanyName
	case domain.RoleProfessional:
		p, err := s.Repo.ProfessionalByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, domain.ErrSubjectNotFound) {
				return nil, domain.ErrInvalidCredentials
			}
			return nil, err
		}
		id.SubjectID, passwordHash, active, name = p.ID, p.PasswordHash, p.Active, p.FullName
	default:
		return nil, domain.ErrInvalidCredentials
	}

	if !active || !hash.CheckPassword(passwordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}

	sess, err := s.issueSession(ctx, id.SubjectID, role, email, name)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.TouchLastLogin(ctx, id.SubjectID, role); err != nil {
		l.Warn("last_login update failed", "error", err)
	}

	s.publishUserEvent(ctx, "user_logged_in", sess.Identity)
	return sess, nil
}

// Logout revokes the presented session per the configured strategy.
func (s *Service) Logout(ctx context.Context, identity domain.Identity, rawToken string) error {
	digest := hash.Sha256Hex(rawToken)

	switch s.RevocationMode {
	case RevocationBlacklist:
		claims, err := s.Tokens.Parse(rawToken)
		if err != nil {
			return err
		}
		if err := s.Repo.RevokeToken(ctx, digest, claims.ExpiresAt.Time); err != nil {
			return err
		}
	default:
		if _, err := s.Repo.RemoveSessionToken(ctx, digest); err != nil {
			return err
		}
	}

	s.publishUserEvent(ctx, "user_logged_out", identity)
	return nil
}

// Authenticate resolves a bearer token to an identity: signature and expiry,
// then revocation, then a live subject.
func (s *Service) Authenticate(ctx context.Context, rawToken string) (domain.Identity, error) {
	if rawToken == "" {
		return domain.Identity{}, domain.ErrMissingToken
	}

	claims, err := s.Tokens.Parse(rawToken)
	if err != nil {
		return domain.Identity{}, err
	}
	identity, err := claims.Identity()
	if err != nil {
		return domain.Identity{}, err
	}

	digest := hash.Sha256Hex(rawToken)
	switch s.RevocationMode {
	case RevocationBlacklist:
		revoked, err := s.Repo.TokenRevoked(ctx, digest)
		if err != nil {
			return domain.Identity{}, err
		}
		if revoked {
			return domain.Identity{}, domain.ErrRevokedToken
		}
	default:
		live, err := s.Repo.SessionTokenLive(ctx, digest)
		if err != nil {
			return domain.Identity{}, err
		}
		if !live {
			return domain.Identity{}, domain.ErrRevokedToken
		}
	}

	subject, err := s.Repo.SubjectByID(ctx, identity.SubjectID, identity.Role)
	if err != nil {
		return domain.Identity{}, err
	}
	if !subject.Active {
		return domain.Identity{}, domain.ErrSubjectNotFound
	}

	return identity, nil
}

func (s *Service) issueSession(ctx context.Context, subjectID uuid.UUID, role domain.Role, email, name string) (*Session, error) {
	signed, claims, err := s.Tokens.Sign(subjectID, role)
	if err != nil {
		return nil, err
	}

	err = s.Repo.AddSessionToken(ctx, subjectID, role, hash.Sha256Hex(signed), claims.ExpiresAt.Time)
	if err != nil {
		return nil, err
	}

	return &Session{
		Token:     signed,
		ExpiresAt: claims.ExpiresAt.Time,
		Identity:  domain.Identity{SubjectID: subjectID, Role: role},
		Email:     email,
		Name:      name,
	}, nil
}

func (s *Service) publishUserEvent(ctx context.Context, kind string, identity domain.Identity) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	event := map[string]interface{}{
		"type":       kind,
		"subject_id": identity.SubjectID,
		"role":       identity.Role,
	}
	if err := s.Producer.PublishEvent(pubCtx, "user_events", identity.SubjectID.String(), event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "error", err)
	}
}
