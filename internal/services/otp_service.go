package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"daybook/internal/repositories"
	"daybook/internal/utils"
)

var (
	ErrEmailAlreadyVerified = errors.New("email already verified")
	ErrEmailDeliveryFailed  = errors.New("email delivery failed")
	ErrInvalidOrExpiredOTP  = errors.New("invalid or expired otp")
)

const otpTTL = 10 * time.Minute

type OTPService interface {
	RequestCode(email string) error
	VerifyAndConsume(email, code string) error
}

type otpService struct {
	repo     repositories.OTPRepository
	userRepo repositories.UserRepository
	emails   EmailService
}

func NewOTPService(repo repositories.OTPRepository, userRepo repositories.UserRepository, emails EmailService) OTPService {
	return &otpService{
		repo:     repo,
		userRepo: userRepo,
		emails:   emails,
	}
}

// RequestCode issues a fresh 6-digit code for the email. Any previous code
// for the same email is superseded: the old rows are deleted first, so the
// latest code is the only one that can verify. The row is stored before the
// email goes out; an SMTP failure is still reported to the caller.
func (s *otpService) RequestCode(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return err
	}
	if user != nil && user.IsVerified {
		return ErrEmailAlreadyVerified
	}

	if err := s.repo.DeleteByEmail(email); err != nil {
		return err
	}

	code, err := utils.NewOTPCode()
	if err != nil {
		return fmt.Errorf("otp generate: %w", err)
	}
	codeHashBytes, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("bcrypt generate: %w", err)
	}

	expiresAt := time.Now().Add(otpTTL)
	if _, err := s.repo.Create(email, string(codeHashBytes), expiresAt); err != nil {
		return err
	}

	if err := s.emails.SendOTPEmail(email, code); err != nil {
		log.Printf("[otp][request] email send failed for %s: %v", email, err)
		return ErrEmailDeliveryFailed
	}

	log.Printf("[otp][request] code issued email=%s exp_at=%s", email, expiresAt.Format(time.RFC3339))
	return nil
}

// VerifyAndConsume checks the code against the latest row for the email and
// marks it consumed. Consumption is compare-and-set in the store, so the
// same code can never complete two registrations even under concurrent
// verification attempts.
func (s *otpService) VerifyAndConsume(email, code string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	rec, err := s.repo.GetLatestByEmail(email)
	if err != nil {
		return err
	}
	if rec == nil || rec.Consumed || rec.Expired(time.Now()) {
		return ErrInvalidOrExpiredOTP
	}

	if err := bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(code)); err != nil {
		return ErrInvalidOrExpiredOTP
	}

	ok, err := s.repo.Consume(rec.ID)
	if err != nil {
		return err
	}
	if !ok {
		// lost the race: someone consumed it between read and write
		return ErrInvalidOrExpiredOTP
	}

	log.Printf("[otp][verify] consumed email=%s", email)
	return nil
}
