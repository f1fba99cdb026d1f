package services

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"daybook/internal/models"
)

type fakeOTPRepo struct {
	rows        []*models.OTPCode
	nextID      int64
	loseConsume bool // simulate losing the compare-and-set race
}

func (f *fakeOTPRepo) Create(email, codeHash string, expiresAt time.Time) (int64, error) {
	f.nextID++
	f.rows = append(f.rows, &models.OTPCode{
		ID:        f.nextID,
		Email:     email,
		CodeHash:  codeHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	})
	return f.nextID, nil
}

func (f *fakeOTPRepo) DeleteByEmail(email string) error {
	kept := f.rows[:0]
	for _, r := range f.rows {
		if r.Email != email {
			kept = append(kept, r)
		}
	}
	f.rows = kept
	return nil
}

func (f *fakeOTPRepo) GetLatestByEmail(email string) (*models.OTPCode, error) {
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].Email == email {
			return f.rows[i], nil
		}
	}
	return nil, nil
}

func (f *fakeOTPRepo) Consume(id int64) (bool, error) {
	if f.loseConsume {
		return false, nil
	}
	for _, r := range f.rows {
		if r.ID == id {
			if r.Consumed {
				return false, nil
			}
			r.Consumed = true
			return true, nil
		}
	}
	return false, nil
}

type fakeUserRepo struct {
	byEmail  map[string]*models.User
	byGoogle map[string]*models.User
	nextID   int
	created  int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byEmail:  make(map[string]*models.User),
		byGoogle: make(map[string]*models.User),
	}
}

func (f *fakeUserRepo) Create(u *models.User) error {
	f.nextID++
	f.created++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	f.byEmail[u.Email] = u
	if u.GoogleID != nil {
		f.byGoogle[*u.GoogleID] = u
	}
	return nil
}

func (f *fakeUserRepo) GetByID(id int) (*models.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	return f.byEmail[email], nil
}

func (f *fakeUserRepo) GetByGoogleID(googleID string) (*models.User, error) {
	return f.byGoogle[googleID], nil
}

func (f *fakeUserRepo) AttachGoogleID(userID int, googleID string) error {
	for _, u := range f.byEmail {
		if u.ID == userID {
			g := googleID
			u.GoogleID = &g
			u.IsVerified = true
			f.byGoogle[googleID] = u
		}
	}
	return nil
}

func (f *fakeUserRepo) MarkVerified(userID int) error {
	for _, u := range f.byEmail {
		if u.ID == userID {
			u.IsVerified = true
		}
	}
	return nil
}

type fakeEmail struct {
	sent []struct{ email, code string }
	fail bool
}

func (f *fakeEmail) SendOTPEmail(email, code string) error {
	if f.fail {
		return errors.New("smtp down")
	}
	f.sent = append(f.sent, struct{ email, code string }{email, code})
	return nil
}

func (f *fakeEmail) lastCode() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].code
}

func TestRequestCode_RejectsVerifiedEmail(t *testing.T) {
	users := newFakeUserRepo()
	users.byEmail["a@x.com"] = &models.User{ID: 1, Email: "a@x.com", IsVerified: true}
	svc := NewOTPService(&fakeOTPRepo{}, users, &fakeEmail{})

	err := svc.RequestCode("a@x.com")
	require.ErrorIs(t, err, ErrEmailAlreadyVerified)
}

func TestRequestCode_SendsSixDigitCode(t *testing.T) {
	repo := &fakeOTPRepo{}
	emails := &fakeEmail{}
	svc := NewOTPService(repo, newFakeUserRepo(), emails)

	require.NoError(t, svc.RequestCode("a@x.com"))
	require.Len(t, repo.rows, 1)
	require.Regexp(t, regexp.MustCompile(`^\d{6}$`), emails.lastCode())
}

func TestRequestCode_SupersedesOlderCode(t *testing.T) {
	repo := &fakeOTPRepo{}
	emails := &fakeEmail{}
	svc := NewOTPService(repo, newFakeUserRepo(), emails)

	require.NoError(t, svc.RequestCode("a@x.com"))
	first := emails.lastCode()

	require.NoError(t, svc.RequestCode("a@x.com"))
	second := emails.lastCode()
	require.Len(t, repo.rows, 1, "older code must be dropped")

	// the superseded code must no longer verify, the new one must
	require.ErrorIs(t, svc.VerifyAndConsume("a@x.com", first), ErrInvalidOrExpiredOTP)
	require.NoError(t, svc.VerifyAndConsume("a@x.com", second))
}

func TestRequestCode_DeliveryFailureSurfaces(t *testing.T) {
	repo := &fakeOTPRepo{}
	svc := NewOTPService(repo, newFakeUserRepo(), &fakeEmail{fail: true})

	err := svc.RequestCode("a@x.com")
	require.ErrorIs(t, err, ErrEmailDeliveryFailed)
	require.Len(t, repo.rows, 1, "code row stays stored even when delivery fails")
}

func TestVerifyAndConsume_SingleUse(t *testing.T) {
	repo := &fakeOTPRepo{}
	emails := &fakeEmail{}
	svc := NewOTPService(repo, newFakeUserRepo(), emails)

	require.NoError(t, svc.RequestCode("a@x.com"))
	code := emails.lastCode()

	require.NoError(t, svc.VerifyAndConsume("a@x.com", code))
	require.ErrorIs(t, svc.VerifyAndConsume("a@x.com", code), ErrInvalidOrExpiredOTP)
}

func TestVerifyAndConsume_WrongAndExpired(t *testing.T) {
	repo := &fakeOTPRepo{}
	emails := &fakeEmail{}
	svc := NewOTPService(repo, newFakeUserRepo(), emails)

	require.NoError(t, svc.RequestCode("a@x.com"))
	wrong := "000000"
	if emails.lastCode() == wrong {
		wrong = "000001"
	}
	require.ErrorIs(t, svc.VerifyAndConsume("a@x.com", wrong), ErrInvalidOrExpiredOTP)

	repo.rows[0].ExpiresAt = time.Now().Add(-time.Minute)
	require.ErrorIs(t, svc.VerifyAndConsume("a@x.com", emails.lastCode()), ErrInvalidOrExpiredOTP)
}

func TestVerifyAndConsume_LostRace(t *testing.T) {
	repo := &fakeOTPRepo{}
	emails := &fakeEmail{}
	svc := NewOTPService(repo, newFakeUserRepo(), emails)

	require.NoError(t, svc.RequestCode("a@x.com"))
	code := emails.lastCode()

	// the row still reads as unconsumed, but the conditional write loses
	repo.loseConsume = true
	require.ErrorIs(t, svc.VerifyAndConsume("a@x.com", code), ErrInvalidOrExpiredOTP)
}
