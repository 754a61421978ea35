package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/repository"
	apperrors "github.com/spec-kit/incident-service/pkg/util/errorutil"
)

type authFixture struct {
	service *AuthService
	users   *repository.MemoryUserRepository
	mailer  *fakeMailer
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	users := repository.NewMemoryUserRepository()
	mailer := &fakeMailer{}
	svc := NewAuthService(testConfig(), AuthDependencies{
		UserRepo:          users,
		PasswordResetRepo: users,
		Mailer:            mailer,
		ResetLimiter:      newFakeLimiter(3),
	})
	return authFixture{service: svc, users: users, mailer: mailer}
}

func TestRegisterPassengerAndLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	res, err := f.service.Register(ctx, RegisterInput{Name: "Pat", Email: " Pat@Example.com ", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, domain.RolePassenger, res.User.Role)
	assert.Equal(t, "pat@example.com", res.User.Email)
	assert.Nil(t, res.User.StaffID)
	assert.NotEqual(t, "password1", res.User.PasswordHash)

	login, err := f.service.Login(ctx, "PAT@example.com", "password1")
	require.NoError(t, err)
	claims, err := f.service.Tokens().ParseToken(login.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.Subject)
	assert.Equal(t, domain.RolePassenger, claims.Role)
}

func TestRegisterStaffGetsStaffIDCarriedInToken(t *testing.T) {
	f := newAuthFixture(t)

	res, err := f.service.Register(context.Background(), RegisterInput{
		Name: "Ana", Email: "ana@airport.example", Password: "password1",
		Role: domain.RoleStaff, Department: domain.DepartmentSecurity,
	})
	require.NoError(t, err)
	require.NotNil(t, res.User.StaffID)
	assert.Regexp(t, `^STF-[0-9A-Z]{6}$`, *res.User.StaffID)

	claims, err := f.service.Tokens().ParseToken(res.Token)
	require.NoError(t, err)
	identity := claims.Identity()
	assert.Equal(t, *res.User.StaffID, identity.StaffID)
	assert.Equal(t, domain.DepartmentSecurity, identity.Department)
	assert.True(t, identity.IsStaff())
}

func TestRegisterValidation(t *testing.T) {
	f := newAuthFixture(t)
	cases := map[string]RegisterInput{
		"short password":      {Name: "A", Email: "a@example.com", Password: "short"},
		"bad email":           {Name: "A", Email: "not-an-email", Password: "password1"},
		"unknown role":        {Name: "A", Email: "a@example.com", Password: "password1", Role: "admin"},
		"staff without dept":  {Name: "A", Email: "a@example.com", Password: "password1", Role: domain.RoleStaff},
		"passenger with dept": {Name: "A", Email: "a@example.com", Password: "password1", Department: domain.DepartmentSecurity},
		"missing name":        {Email: "a@example.com", Password: "password1"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.service.Register(context.Background(), in)
			assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"), "got %v", err)
		})
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.service.Register(ctx, RegisterInput{Name: "A", Email: "dup@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = f.service.Register(ctx, RegisterInput{Name: "B", Email: "DUP@example.com", Password: "password2"})
	assert.True(t, apperrors.HasCode(err, "CONFLICT"))
}

func TestRegisterStaffRetriesStaffIDCollision(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	ids := []string{"STF-AAAAAA", "STF-AAAAAA", "STF-BBBBBB"}
	f.service.newStaffID = func() (string, error) {
		id := ids[0]
		ids = ids[1:]
		return id, nil
	}

	first, err := f.service.Register(ctx, RegisterInput{Name: "A", Email: "a@airport.example", Password: "password1", Role: domain.RoleStaff, Department: domain.DepartmentSanitation})
	require.NoError(t, err)
	second, err := f.service.Register(ctx, RegisterInput{Name: "B", Email: "b@airport.example", Password: "password1", Role: domain.RoleStaff, Department: domain.DepartmentSanitation})
	require.NoError(t, err)

	assert.Equal(t, "STF-AAAAAA", *first.User.StaffID)
	assert.Equal(t, "STF-BBBBBB", *second.User.StaffID)
}

func TestRegisterStaffGivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.service.newStaffID = func() (string, error) { return "STF-SAME00", nil }

	_, err := f.service.Register(ctx, RegisterInput{Name: "A", Email: "a@airport.example", Password: "password1", Role: domain.RoleStaff, Department: domain.DepartmentSecurity})
	require.NoError(t, err)
	_, err = f.service.Register(ctx, RegisterInput{Name: "B", Email: "b@airport.example", Password: "password1", Role: domain.RoleStaff, Department: domain.DepartmentSecurity})
	assert.True(t, apperrors.HasCode(err, "INTERNAL_ERROR"))

	_, err = f.users.GetByEmail(ctx, "b@airport.example")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.service.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	_, wrongPassword := f.service.Login(ctx, "a@example.com", "password2")
	_, unknownEmail := f.service.Login(ctx, "nobody@example.com", "password1")

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	assert.True(t, apperrors.HasCode(wrongPassword, "UNAUTHORIZED"))
	assert.True(t, apperrors.HasCode(unknownEmail, "UNAUTHORIZED"))
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.service.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	msgKnown, err := f.service.RequestPasswordReset(ctx, "a@example.com")
	require.NoError(t, err)
	msgUnknown, err := f.service.RequestPasswordReset(ctx, "ghost@example.com")
	require.NoError(t, err)
	assert.Equal(t, msgKnown, msgUnknown)
	require.Len(t, f.mailer.sent, 1)
	assert.True(t, strings.HasPrefix(f.mailer.sent[0].url, "http://airport.test/#reset/"))

	token := f.mailer.lastToken(t)
	assert.Len(t, token, 48)

	require.NoError(t, f.service.ResetPassword(ctx, token, "brand-new-pass"))
	err = f.service.ResetPassword(ctx, token, "another-pass")
	assert.True(t, apperrors.HasCode(err, "INVALID_TOKEN"), "token is single use")

	_, err = f.service.Login(ctx, "a@example.com", "password1")
	assert.Error(t, err)
	_, err = f.service.Login(ctx, "a@example.com", "brand-new-pass")
	assert.NoError(t, err)
}

func TestPasswordResetTokenExpires(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.service.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = f.service.RequestPasswordReset(ctx, "a@example.com")
	require.NoError(t, err)
	token := f.mailer.lastToken(t)

	f.service.now = func() time.Time { return time.Now().Add(31 * time.Minute) }
	err = f.service.ResetPassword(ctx, token, "brand-new-pass")
	assert.True(t, apperrors.HasCode(err, "INVALID_TOKEN"))
}

func TestPasswordResetRequestsAreThrottledSilently(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.service.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		msg, err := f.service.RequestPasswordReset(ctx, "a@example.com")
		require.NoError(t, err)
		assert.Equal(t, genericResetInfo, msg)
	}
	assert.Len(t, f.mailer.sent, 3)
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	res, err := f.service.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	err = f.service.ChangePassword(ctx, res.User.ID, "wrong-pass", "password2")
	assert.True(t, apperrors.HasCode(err, "UNAUTHORIZED"))

	require.NoError(t, f.service.ChangePassword(ctx, res.User.ID, "password1", "password2"))
	_, err = f.service.Login(ctx, "a@example.com", "password2")
	assert.NoError(t, err)
}

func TestPasswordsBeyondBcryptLimitAreRejected(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	long := strings.Repeat("x", 80)

	assertPasswordRejected := func(t *testing.T, err error) {
		t.Helper()
		var domainErr *apperrors.DomainError
		require.True(t, errors.As(err, &domainErr), "got %v", err)
		assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
		assert.Contains(t, domainErr.Details, "password")
	}

	_, err := f.service.Register(ctx, RegisterInput{Name: "A", Email: "long@example.com", Password: long})
	assertPasswordRejected(t, err)

	res, err := f.service.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)
	assertPasswordRejected(t, f.service.ChangePassword(ctx, res.User.ID, "password1", long))

	_, err = f.service.RequestPasswordReset(ctx, "a@example.com")
	require.NoError(t, err)
	token := f.mailer.lastToken(t)
	assertPasswordRejected(t, f.service.ResetPassword(ctx, token, long))
	require.NoError(t, f.service.ResetPassword(ctx, token, "brand-new-pass"), "rejected attempt does not burn the token")
}

func TestGenerateStaffIDShape(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id, err := generateStaffID()
		require.NoError(t, err)
		assert.Regexp(t, `^STF-[0-9A-Z]{6}$`, id)
		seen[id] = true
	}
	assert.Greater(t, len(seen), 45)
}

func TestResetPasswordRejectsEmptyToken(t *testing.T) {
	f := newAuthFixture(t)
	err := f.service.ResetPassword(context.Background(), "  ", "password1")
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INVALID_TOKEN", domainErr.Code)
}
