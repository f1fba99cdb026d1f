package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"daybook/internal/models"
)

type fakeOTP struct {
	err      error
	consumed []string
}

func (f *fakeOTP) RequestCode(email string) error { return nil }

func (f *fakeOTP) VerifyAndConsume(email, code string) error {
	if f.err != nil {
		return f.err
	}
	f.consumed = append(f.consumed, email)
	return nil
}

func TestRegister_Success(t *testing.T) {
	users := newFakeUserRepo()
	auth := NewAuthService("test-secret")
	svc := NewUserService(users, &fakeOTP{}, auth)

	user, token, err := svc.Register("A@X.com", "123456", "hunter22")
	require.NoError(t, err)
	require.Equal(t, "a@x.com", user.Email)
	require.True(t, user.IsVerified)
	require.NotNil(t, user.PasswordHash)
	require.NotEqual(t, "hunter22", *user.PasswordHash)

	claims, err := auth.VerifyToken(token)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
}

func TestRegister_BadOTP(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewUserService(users, &fakeOTP{err: ErrInvalidOrExpiredOTP}, NewAuthService("test-secret"))

	_, _, err := svc.Register("a@x.com", "000000", "hunter22")
	require.ErrorIs(t, err, ErrInvalidOrExpiredOTP)
	require.Zero(t, users.created, "no user may be created on a failed OTP")
}

func TestLogin_GenericFailure(t *testing.T) {
	users := newFakeUserRepo()
	auth := NewAuthService("test-secret")
	svc := NewUserService(users, &fakeOTP{}, auth)

	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	users.byEmail["a@x.com"] = &models.User{ID: 1, Email: "a@x.com", PasswordHash: &hash, IsVerified: true}
	users.byEmail["b@x.com"] = &models.User{ID: 2, Email: "b@x.com", PasswordHash: &hash, IsVerified: false}

	// wrong password, unknown email and unverified account must all fail
	// with exactly the same error
	_, errWrongPass := svc.Login("a@x.com", "battery staple")
	_, errNoUser := svc.Login("nobody@x.com", "correct horse")
	_, errUnverified := svc.Login("b@x.com", "correct horse")

	require.ErrorIs(t, errWrongPass, ErrInvalidCredentials)
	require.ErrorIs(t, errNoUser, ErrInvalidCredentials)
	require.ErrorIs(t, errUnverified, ErrInvalidCredentials)
	require.Equal(t, errWrongPass.Error(), errNoUser.Error())
}

func TestLogin_Success(t *testing.T) {
	users := newFakeUserRepo()
	auth := NewAuthService("test-secret")
	svc := NewUserService(users, &fakeOTP{}, auth)

	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	users.byEmail["a@x.com"] = &models.User{ID: 7, Email: "a@x.com", PasswordHash: &hash, IsVerified: true}

	token, err := svc.Login("a@x.com", "correct horse")
	require.NoError(t, err)

	claims, err := auth.VerifyToken(token)
	require.NoError(t, err)
	require.Equal(t, 7, claims.UserID)
}

func TestGoogleSignIn_Idempotent(t *testing.T) {
	users := newFakeUserRepo()
	auth := NewAuthService("test-secret")
	svc := NewUserService(users, &fakeOTP{}, auth)

	identity := &GoogleIdentity{Email: "a@x.com", Subject: "google-sub-1", Verified: true}

	tok1, err := svc.GoogleSignIn(identity)
	require.NoError(t, err)
	tok2, err := svc.GoogleSignIn(identity)
	require.NoError(t, err)

	require.Equal(t, 1, users.created, "second sign-in must not create another user")

	c1, err := auth.VerifyToken(tok1)
	require.NoError(t, err)
	c2, err := auth.VerifyToken(tok2)
	require.NoError(t, err)
	require.Equal(t, c1.UserID, c2.UserID)
}

func TestGoogleSignIn_BackfillsExistingUser(t *testing.T) {
	users := newFakeUserRepo()
	auth := NewAuthService("test-secret")
	svc := NewUserService(users, &fakeOTP{}, auth)

	hash := "$2a$10$stub"
	users.byEmail["a@x.com"] = &models.User{ID: 3, Email: "a@x.com", PasswordHash: &hash, IsVerified: true}

	_, err := svc.GoogleSignIn(&GoogleIdentity{Email: "a@x.com", Subject: "google-sub-9"})
	require.NoError(t, err)

	require.Zero(t, users.created)
	u := users.byEmail["a@x.com"]
	require.NotNil(t, u.GoogleID)
	require.Equal(t, "google-sub-9", *u.GoogleID)
}

func TestGoogleSignIn_RejectsEmptyAssertion(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), &fakeOTP{}, NewAuthService("test-secret"))

	_, err := svc.GoogleSignIn(&GoogleIdentity{Email: "", Subject: ""})
	require.ErrorIs(t, err, ErrInvalidExternalAssertion)
}
