package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/omex-backend/internal/data/repos"
	"github.com/yungbote/omex-backend/internal/data/repos/testutil"
	types "github.com/yungbote/omex-backend/internal/domain"
	"github.com/yungbote/omex-backend/internal/platform/apierr"
	"github.com/yungbote/omex-backend/internal/platform/ctxutil"
	"github.com/yungbote/omex-backend/internal/platform/objectstorage"
	"github.com/yungbote/omex-backend/internal/platform/validate"
)

const testSecret = "test-secret"

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type authFixture struct {
	svc   AuthService
	db    *gorm.DB
	clock *fakeClock
}

func newAuthFixture(t *testing.T, withAvatars bool) authFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}

	var avatars AvatarService
	if withAvatars {
		bucket, err := objectstorage.NewLocalBucket(log, t.TempDir(), "http://localhost:8080/media")
		if err != nil {
			t.Fatalf("NewLocalBucket: %v", err)
		}
		avatars, err = NewAvatarService(log, bucket)
		if err != nil {
			t.Fatalf("NewAvatarService: %v", err)
		}
	}

	svc, err := NewAuthService(log, repos.NewUserRepo(db, log), avatars, validate.New(), AuthConfig{
		JWTSecretKey: testSecret,
		TokenTTL:     720 * time.Hour,
		BcryptCost:   bcrypt.MinCost,
		Now:          clock.Now,
	})
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	return authFixture{svc: svc, db: db, clock: clock}
}

func registerTestUser(t *testing.T, f authFixture) *types.User {
	t.Helper()
	user, _, err := f.svc.RegisterUser(context.Background(), RegisterInput{
		Email:     "Ada@Example.com ",
		Password:  "Secret123",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	return user
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, true)

	user, token, err := f.svc.RegisterUser(ctx, RegisterInput{
		Email:     "Ada@Example.com ",
		Password:  "Secret123",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Fatalf("email: want=%q got=%q", "ada@example.com", user.Email)
	}
	if user.Password == "Secret123" {
		t.Fatalf("password stored in clear text")
	}
	if user.AvatarKey == "" || user.AvatarURL == "" {
		t.Fatalf("avatar fields not set: key=%q url=%q", user.AvatarKey, user.AvatarURL)
	}
	if token == "" {
		t.Fatalf("empty token")
	}

	got, err := f.svc.VerifyToken(ctx, token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("token subject: want=%s got=%s", user.ID, got.ID)
	}

	loggedIn, token2, err := f.svc.LoginUser(ctx, "ADA@example.com", "Secret123")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}
	if loggedIn.ID != user.ID || token2 == "" {
		t.Fatalf("login: got user=%s token=%q", loggedIn.ID, token2)
	}
}

func TestRegisterRejectsDuplicateAndWeakInput(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, false)
	registerTestUser(t, f)

	_, _, err := f.svc.RegisterUser(ctx, RegisterInput{Email: "ada@example.com", Password: "Secret123"})
	ae := wantAPIError(t, err, http.StatusBadRequest, apierr.CodeConflict)
	if ae.Error() != msgUserExists {
		t.Fatalf("message: want=%q got=%q", msgUserExists, ae.Error())
	}

	cases := map[string]RegisterInput{
		"bad email":      {Email: "not-an-email", Password: "Secret123"},
		"short password": {Email: "b@example.com", Password: "Se1"},
		"no digit":       {Email: "c@example.com", Password: "Secretpass"},
		"no upper":       {Email: "d@example.com", Password: "secret123"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := f.svc.RegisterUser(ctx, in)
			wantAPIError(t, err, http.StatusBadRequest, apierr.CodeValidation)
		})
	}
}

func TestLoginLockout(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, false)
	registerTestUser(t, f)

	for i := 0; i < 5; i++ {
		_, _, err := f.svc.LoginUser(ctx, "ada@example.com", "wrong")
		wantAPIError(t, err, http.StatusUnauthorized, apierr.CodeUnauthorized)
	}

	// Correct password is refused while locked.
	_, _, err := f.svc.LoginUser(ctx, "ada@example.com", "Secret123")
	wantAPIError(t, err, http.StatusUnauthorized, apierr.CodeAccountLocked)

	f.clock.Advance(2*time.Hour - time.Minute)
	_, _, err = f.svc.LoginUser(ctx, "ada@example.com", "Secret123")
	wantAPIError(t, err, http.StatusUnauthorized, apierr.CodeAccountLocked)

	f.clock.Advance(2 * time.Minute)
	user, _, err := f.svc.LoginUser(ctx, "ada@example.com", "Secret123")
	if err != nil {
		t.Fatalf("LoginUser after lock expiry: %v", err)
	}
	if user.LoginAttempts != 0 || user.LockUntil != nil {
		t.Fatalf("counters not reset: attempts=%d lock=%v", user.LoginAttempts, user.LockUntil)
	}
}

func TestFailedLoginAfterLockExpiryRestartsCount(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, false)
	registerTestUser(t, f)

	for i := 0; i < 5; i++ {
		_, _, _ = f.svc.LoginUser(ctx, "ada@example.com", "wrong")
	}
	f.clock.Advance(3 * time.Hour)

	_, _, err := f.svc.LoginUser(ctx, "ada@example.com", "wrong")
	wantAPIError(t, err, http.StatusUnauthorized, apierr.CodeUnauthorized)

	var stored types.User
	if err := f.db.Where("email = ?", "ada@example.com").First(&stored).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if stored.LoginAttempts != 1 || stored.IsLocked(f.clock.Now()) {
		t.Fatalf("want attempts=1 unlocked got attempts=%d lock=%v", stored.LoginAttempts, stored.LockUntil)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	f := newAuthFixture(t, false)
	_, _, err := f.svc.LoginUser(context.Background(), "nobody@example.com", "Secret123")
	ae := wantAPIError(t, err, http.StatusUnauthorized, apierr.CodeUnauthorized)
	if ae.Error() != msgInvalidCredentials {
		t.Fatalf("message: want=%q got=%q", msgInvalidCredentials, ae.Error())
	}
}

func TestVerifyTokenRejections(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, false)
	user := registerTestUser(t, f)

	good, err := f.svc.IssueToken(user.ID)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	otherKey := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		ExpiresAt: jwt.NewNumericDate(f.clock.Now().Add(time.Hour)),
	})
	forged, _ := otherKey.SignedString([]byte("other-secret"))

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: user.ID.String()})
	noExpToken, _ := noExp.SignedString([]byte(testSecret))

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		ExpiresAt: jwt.NewNumericDate(f.clock.Now().Add(time.Hour)),
	})
	noneToken, _ := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, tok := range map[string]string{
		"empty":          "",
		"garbage":        "not.a.jwt",
		"wrong key":      forged,
		"no expiry":      noExpToken,
		"alg none":       noneToken,
		"truncated good": good[:len(good)-4],
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.VerifyToken(ctx, tok)
			wantAPIError(t, err, http.StatusUnauthorized, apierr.CodeUnauthorized)
		})
	}

	f.clock.Advance(721 * time.Hour)
	_, err = f.svc.VerifyToken(ctx, good)
	wantAPIError(t, err, http.StatusUnauthorized, apierr.CodeUnauthorized)
}

func TestVerifyTokenDeletedUser(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, false)
	user := registerTestUser(t, f)
	token, err := f.svc.IssueToken(user.ID)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if err := f.db.Delete(&types.User{}, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("delete user: %v", err)
	}
	_, err = f.svc.VerifyToken(ctx, token)
	ae := wantAPIError(t, err, http.StatusUnauthorized, apierr.CodeUnauthorized)
	if ae.Error() != msgUserGone {
		t.Fatalf("message: want=%q got=%q", msgUserGone, ae.Error())
	}
}

func TestSetContextFromToken(t *testing.T) {
	f := newAuthFixture(t, false)
	user := registerTestUser(t, f)
	token, err := f.svc.IssueToken(user.ID)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	ctx, err := f.svc.SetContextFromToken(context.Background(), token)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	if got := ctxutil.UserID(ctx); got != user.ID {
		t.Fatalf("ctx user: want=%s got=%s", user.ID, got)
	}
	if got := ctxutil.UserID(context.Background()); got != uuid.Nil {
		t.Fatalf("empty ctx user: want=nil got=%s", got)
	}
}
