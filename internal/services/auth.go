package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/omex-backend/internal/data/repos"
	types "github.com/yungbote/omex-backend/internal/domain"
	"github.com/yungbote/omex-backend/internal/observability"
	"github.com/yungbote/omex-backend/internal/platform/apierr"
	"github.com/yungbote/omex-backend/internal/platform/ctxutil"
	"github.com/yungbote/omex-backend/internal/platform/logger"
	"github.com/yungbote/omex-backend/internal/platform/validate"
)

const (
	msgUserExists         = "User already exists"
	msgInvalidCredentials = "Invalid credentials"
	msgAccountLocked      = "Account is temporarily locked. Please try again later"
	msgNotAuthorized      = "Not authorized to access this route"
	msgUserGone           = "User no longer exists"
)

type RegisterInput struct {
	Email     string `json:"email" validate:"email"`
	Password  string `json:"password" validate:"password"`
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
}

type AuthConfig struct {
	JWTSecretKey     string
	TokenTTL         time.Duration
	MaxLoginAttempts int
	LockDuration     time.Duration
	BcryptCost       int
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

type AuthService interface {
	RegisterUser(ctx context.Context, in RegisterInput) (*types.User, string, error)
	LoginUser(ctx context.Context, email, password string) (*types.User, string, error)
	IssueToken(userID uuid.UUID) (string, error)
	VerifyToken(ctx context.Context, tokenString string) (*types.User, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetTokenTTL() time.Duration
}

type JWTClaims struct {
	jwt.RegisteredClaims
}

type authService struct {
	log           *logger.Logger
	userRepo      repos.UserRepo
	avatarService AvatarService
	validator     *validate.Validator
	cfg           AuthConfig
	// dummyHash keeps unknown-email logins as slow as wrong-password ones.
	dummyHash []byte
}

func NewAuthService(
	log *logger.Logger,
	userRepo repos.UserRepo,
	avatarService AvatarService,
	validator *validate.Validator,
	cfg AuthConfig,
) (AuthService, error) {
	serviceLog := log.With("service", "AuthService")
	if strings.TrimSpace(cfg.JWTSecretKey) == "" {
		return nil, fmt.Errorf("jwt secret key required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 30 * 24 * time.Hour
	}
	if cfg.MaxLoginAttempts <= 0 {
		cfg.MaxLoginAttempts = 5
	}
	if cfg.LockDuration <= 0 {
		cfg.LockDuration = 2 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("omex-dummy-password"), cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("init dummy hash: %w", err)
	}
	return &authService{
		log:           serviceLog,
		userRepo:      userRepo,
		avatarService: avatarService,
		validator:     validator,
		cfg:           cfg,
		dummyHash:     dummy,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (as *authService) RegisterUser(ctx context.Context, in RegisterInput) (*types.User, string, error) {
	in.Email = normalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := as.validator.Struct(in); err != nil {
		return nil, "", apierr.Validation(err.Error())
	}

	exists, err := as.userRepo.EmailExists(ctx, nil, in.Email)
	if err != nil {
		return nil, "", fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, "", apierr.Conflict(msgUserExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), as.cfg.BcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	user := &types.User{
		ID:        uuid.New(),
		Email:     in.Email,
		Password:  string(hash),
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}
	if _, err := as.userRepo.Create(ctx, nil, []*types.User{user}); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", apierr.Conflict(msgUserExists)
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	as.attachAvatar(ctx, user)

	token, err := as.IssueToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	as.log.Info("User registered", "user_id", user.ID)
	return user, token, nil
}

// attachAvatar is best effort; registration succeeds without an avatar.
func (as *authService) attachAvatar(ctx context.Context, user *types.User) {
	if as.avatarService == nil {
		return
	}
	key, url, err := as.avatarService.CreateAndUpload(ctx, user)
	if err != nil {
		as.log.Warn("avatar generation failed (ignored)", "user_id", user.ID, "error", err)
		return
	}
	if err := as.userRepo.UpdateAvatarFields(ctx, nil, user.ID, key, url); err != nil {
		as.log.Warn("avatar fields update failed (ignored)", "user_id", user.ID, "error", err)
		return
	}
	user.AvatarKey = key
	user.AvatarURL = url
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (*types.User, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", apierr.Unauthorized(msgInvalidCredentials)
	}

	users, err := as.userRepo.GetByEmails(ctx, nil, []string{email})
	if err != nil {
		return nil, "", fmt.Errorf("Error retrieving user by email: %w", err)
	}
	if len(users) == 0 {
		_ = bcrypt.CompareHashAndPassword(as.dummyHash, []byte(password))
		observability.Current().IncLoginFailure("unknown_email")
		return nil, "", apierr.Unauthorized(msgInvalidCredentials)
	}
	user := users[0]

	now := as.cfg.Now()
	if user.IsLocked(now) {
		observability.Current().IncLoginFailure("locked")
		return nil, "", apierr.AccountLocked(msgAccountLocked)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		updated, recErr := as.userRepo.RecordFailedLogin(ctx, nil, user.ID, repos.LockoutPolicy{
			MaxAttempts:  as.cfg.MaxLoginAttempts,
			LockDuration: as.cfg.LockDuration,
			Now:          now,
		})
		if recErr != nil {
			return nil, "", fmt.Errorf("record failed login: %w", recErr)
		}
		observability.Current().IncLoginFailure("bad_password")
		if updated.IsLocked(now) {
			as.log.Warn("Account locked after failed logins", "user_id", user.ID, "attempts", updated.LoginAttempts)
		}
		return nil, "", apierr.Unauthorized(msgInvalidCredentials)
	}

	if user.LoginAttempts != 0 || user.LockUntil != nil {
		if err := as.userRepo.ResetLoginAttempts(ctx, nil, user.ID); err != nil {
			return nil, "", fmt.Errorf("reset login attempts: %w", err)
		}
		user.LoginAttempts = 0
		user.LockUntil = nil
	}

	token, err := as.IssueToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (as *authService) IssueToken(userID uuid.UUID) (string, error) {
	now := as.cfg.Now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.cfg.TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(as.cfg.JWTSecretKey))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (as *authService) VerifyToken(ctx context.Context, tokenString string) (*types.User, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, apierr.Unauthorized(msgNotAuthorized)
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.cfg.JWTSecretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(as.cfg.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		as.log.Debug("token rejected", "error", err)
		return nil, apierr.Unauthorized(msgNotAuthorized)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return nil, apierr.Unauthorized(msgNotAuthorized)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apierr.Unauthorized(msgNotAuthorized)
	}
	users, err := as.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("load token user: %w", err)
	}
	if len(users) == 0 {
		return nil, apierr.Unauthorized(msgUserGone)
	}
	return users[0], nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	user, err := as.VerifyToken(ctx, tokenString)
	if err != nil {
		return ctx, err
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		UserID:      user.ID,
		TokenString: tokenString,
	}), nil
}

func (as *authService) GetTokenTTL() time.Duration {
	return as.cfg.TokenTTL
}
