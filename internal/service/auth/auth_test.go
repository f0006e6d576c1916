package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/promarket/promarket/internal/config"
	"github.com/promarket/promarket/internal/domain"
	"github.com/promarket/promarket/internal/repo"
	"github.com/promarket/promarket/internal/service/token"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:auth_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

func newTestService(t *testing.T, mode string) *Service {
	t.Helper()
	db := newTestDB(t)
	return &Service{
		Repo:           repo.New(db),
		Tokens:         &token.Service{Secret: []byte("test-jwt-secret"), TTL: 24 * time.Hour},
		RevocationMode: mode,
	}
}

func registerProfessional(t *testing.T, svc *Service, email string) *Session {
	t.Helper()
	sess, err := svc.RegisterProfessional(context.Background(), RegisterProfessionalInput{
		Email:      email,
		Password:   "secret123",
		FullName:   "Dana Mason",
		Profession: "architect",
	})
	require.NoError(t, err)
	return sess
}

func TestRegisterProfessional(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, RevocationSet)
	sess := registerProfessional(t, svc, "dana@pros.test")

	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, domain.RoleProfessional, sess.Identity.Role)
	assert.Equal(t, "dana@pros.test", sess.Email)

	// Registration issues a live session immediately.
	identity, err := svc.Authenticate(context.Background(), sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.Identity, identity)
}

func TestRegisterManufacturer(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, RevocationSet)
	sess, err := svc.RegisterManufacturer(context.Background(), RegisterManufacturerInput{
		Email:       "sales@factory.test",
		Password:    "secret123",
		CompanyName: "Tile Factory",
		TaxNumber:   "TX-1001",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManufacturer, sess.Identity.Role)
	assert.Equal(t, "Tile Factory", sess.Name)
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, RevocationSet)
	ctx := context.Background()

	_, err := svc.RegisterProfessional(ctx, RegisterProfessionalInput{
		Email: "x@pros.test", Password: "secret123", Profession: "plumber",
	})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = svc.RegisterProfessional(ctx, RegisterProfessionalInput{
		Email: "x@pros.test", Password: "short", FullName: "X", Profession: "plumber",
	})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, RevocationSet)
	registerProfessional(t, svc, "dup@pros.test")

	_, err := svc.RegisterProfessional(context.Background(), RegisterProfessionalInput{
		Email:      "dup@pros.test",
		Password:   "secret123",
		FullName:   "Other Person",
		Profession: "plumber",
	})
	assert.True(t, errors.Is(err, domain.ErrEmailTaken))
}

func TestLogin(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, RevocationSet)
	registerProfessional(t, svc, "dana@pros.test")

	sess, err := svc.Login(context.Background(), domain.RoleProfessional, "dana@pros.test", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "Dana Mason", sess.Name)

	identity, err := svc.Authenticate(context.Background(), sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.Identity, identity)
}

// Unknown email and wrong password return the same error, so a caller
// cannot tell which accounts exist.
func TestLogin_NoAccountEnumeration(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, RevocationSet)
	registerProfessional(t, svc, "dana@pros.test")
	ctx := context.Background()

	_, errUnknown := svc.Login(ctx, domain.RoleProfessional, "nobody@pros.test", "secret123")
	_, errWrongPw := svc.Login(ctx, domain.RoleProfessional, "dana@pros.test", "wrong-password")

	assert.ErrorIs(t, errUnknown, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPw, domain.ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrongPw.Error())
}

// Credentials are resolved per role; a professional's email does not log in
// as a manufacturer.
func TestLogin_RoleScoped(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, RevocationSet)
	registerProfessional(t, svc, "dana@pros.test")

	_, err := svc.Login(context.Background(), domain.RoleManufacturer, "dana@pros.test", "secret123")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthenticate_MissingToken(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, RevocationSet)
	_, err := svc.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrMissingToken)
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, RevocationSet)
	sess := registerProfessional(t, svc, "dana@pros.test")

	// Re-sign the same identity with an already elapsed TTL.
	expired := &token.Service{Secret: []byte("test-jwt-secret"), TTL: -time.Minute}
	signed, _, err := expired.Sign(sess.Identity.SubjectID, sess.Identity.Role)
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), signed)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestAuthenticate_UnknownSession(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, RevocationSet)
	registerProfessional(t, svc, "dana@pros.test")

	// Valid signature, but the token was never issued through a session.
	signed, _, err := svc.Tokens.Sign(uuid.New(), domain.RoleProfessional)
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), signed)
	assert.ErrorIs(t, err, domain.ErrRevokedToken)
}

func TestLogout_SetMode(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, RevocationSet)
	sess := registerProfessional(t, svc, "dana@pros.test")
	ctx := context.Background()

	require.NoError(t, svc.Logout(ctx, sess.Identity, sess.Token))

	_, err := svc.Authenticate(ctx, sess.Token)
	assert.ErrorIs(t, err, domain.ErrRevokedToken)
}

// Logout kills only the presented session; other sessions of the same
// subject stay live.
func TestLogout_LeavesOtherSessionsAlive(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, RevocationSet)
	registerProfessional(t, svc, "dana@pros.test")
	ctx := context.Background()

	first, err := svc.Login(ctx, domain.RoleProfessional, "dana@pros.test", "secret123")
	require.NoError(t, err)
	second, err := svc.Login(ctx, domain.RoleProfessional, "dana@pros.test", "secret123")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, first.Identity, first.Token))

	_, err = svc.Authenticate(ctx, first.Token)
	assert.ErrorIs(t, err, domain.ErrRevokedToken)

	_, err = svc.Authenticate(ctx, second.Token)
	assert.NoError(t, err)
}

func TestLogout_BlacklistMode(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, RevocationBlacklist)
	sess := registerProfessional(t, svc, "dana@pros.test")
	ctx := context.Background()

	// Before logout the token passes the blacklist check.
	_, err := svc.Authenticate(ctx, sess.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, sess.Identity, sess.Token))

	_, err = svc.Authenticate(ctx, sess.Token)
	assert.ErrorIs(t, err, domain.ErrRevokedToken)
}

func TestAuthenticate_InactiveSubject(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, RevocationSet)
	sess := registerProfessional(t, svc, "dana@pros.test")
	ctx := context.Background()

	p, err := svc.Repo.ProfessionalByID(ctx, sess.Identity.SubjectID)
	require.NoError(t, err)
	p.Active = false
	require.NoError(t, svc.Repo.SaveProfessional(ctx, p))

	_, err = svc.Authenticate(ctx, sess.Token)
	assert.ErrorIs(t, err, domain.ErrSubjectNotFound)
}
