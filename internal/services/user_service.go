package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"daybook/internal/models"
	"daybook/internal/repositories"
)

// ErrInvalidCredentials is deliberately the only failure password login can
// return: "no such user" and "wrong password" must be indistinguishable.
var ErrInvalidCredentials = errors.New("invalid email or password")

type UserService interface {
	Register(email, otp, password string) (*models.User, string, error)
	Login(email, password string) (string, error)
	GoogleSignIn(identity *GoogleIdentity) (string, error)
}

type userService struct {
	repo repositories.UserRepository
	otp  OTPService
	auth AuthService
}

func NewUserService(repo repositories.UserRepository, otp OTPService, auth AuthService) UserService {
	return &userService{
		repo: repo,
		otp:  otp,
		auth: auth,
	}
}

// Register completes the email+OTP path: the code must consume successfully,
// then the user is created verified and a session token is minted. The user
// row is durable before the token goes out.
func (s *userService) Register(email, otp, password string) (*models.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if strings.TrimSpace(password) == "" {
		return nil, "", fmt.Errorf("password is required")
	}

	if err := s.otp.VerifyAndConsume(email, otp); err != nil {
		return nil, "", err
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: &hash,
		IsVerified:   true,
	}
	if err := s.repo.Create(user); err != nil {
		return nil, "", err
	}

	token, err := s.auth.IssueToken(user.ID, user.Email, PasswordTokenTTL)
	if err != nil {
		return nil, "", err
	}

	log.Printf("[auth][register] success userID=%d", user.ID)
	return user, token, nil
}

func (s *userService) Login(email, password string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.repo.GetByEmail(email)
	if err != nil {
		return "", err
	}
	if !user.CanPasswordLogin() {
		log.Printf("[auth][login] rejected email=%q (no verified password account)", email)
		return "", ErrInvalidCredentials
	}
	if !s.auth.CheckPassword(*user.PasswordHash, password) {
		log.Printf("[auth][login] rejected userID=%d (password mismatch)", user.ID)
		return "", ErrInvalidCredentials
	}

	token, err := s.auth.IssueToken(user.ID, user.Email, PasswordTokenTTL)
	if err != nil {
		return "", err
	}
	log.Printf("[auth][login] success userID=%d", user.ID)
	return token, nil
}

// GoogleSignIn resolves an externally verified {email, sub} pair to a local
// user: match by Google subject first, then by email (backfilling the
// subject), creating a passwordless verified account on first sight.
// Idempotent: the same assertion always lands on the same user.
func (s *userService) GoogleSignIn(identity *GoogleIdentity) (string, error) {
	if identity == nil || identity.Subject == "" || identity.Email == "" {
		return "", ErrInvalidExternalAssertion
	}
	email := strings.TrimSpace(strings.ToLower(identity.Email))

	user, err := s.repo.GetByGoogleID(identity.Subject)
	if err != nil {
		return "", err
	}
	if user == nil {
		user, err = s.repo.GetByEmail(email)
		if err != nil {
			return "", err
		}
		if user != nil {
			if err := s.repo.AttachGoogleID(user.ID, identity.Subject); err != nil {
				return "", err
			}
			log.Printf("[auth][google] linked google id to userID=%d", user.ID)
		}
	}
	if user == nil {
		sub := identity.Subject
		user = &models.User{
			Email:      email,
			GoogleID:   &sub,
			IsVerified: true,
		}
		if err := s.repo.Create(user); err != nil {
			return "", err
		}
		log.Printf("[auth][google] created userID=%d", user.ID)
	}

	token, err := s.auth.IssueToken(user.ID, user.Email, OAuthTokenTTL)
	if err != nil {
		return "", err
	}
	log.Printf("[auth][google] success userID=%d", user.ID)
	return token, nil
}
