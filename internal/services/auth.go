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

	"github.com/yungbote/pantry-backend/internal/data/repos"
	types "github.com/yungbote/pantry-backend/internal/domain"
	"github.com/yungbote/pantry-backend/internal/observability"
	"github.com/yungbote/pantry-backend/internal/platform/apierr"
	"github.com/yungbote/pantry-backend/internal/platform/ctxutil"
	"github.com/yungbote/pantry-backend/internal/platform/dbctx"
	"github.com/yungbote/pantry-backend/internal/platform/logger"
	"github.com/yungbote/pantry-backend/internal/platform/validation"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

type JWTClaims struct {
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,max=150"`
}

type AuthService interface {
	RegisterUser(ctx context.Context, in RegisterInput) (*types.User, error)
	// LoginUser returns a fresh access token for the account.
	LoginUser(ctx context.Context, email, password string) (string, error)
	LogoutUser(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	metrics       *observability.Metrics
	jwtSecretKey  string
	accessTTL     time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	metrics *observability.Metrics,
	jwtSecretKey string,
	accessTTL time.Duration,
) AuthService {
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		metrics:       metrics,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
	}
}

func (as *authService) RegisterUser(ctx context.Context, in RegisterInput) (*types.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := validation.Struct(in); err != nil {
		return nil, apierr.BadRequest("invalid_registration", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &types.User{
		ID:        uuid.New(),
		Email:     in.Email,
		Username:  in.Username,
		Password:  string(hashed),
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}

	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		taken, err := as.userRepo.EmailExists(dbc, user.Email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if taken {
			return apierr.Conflict("email_taken", fmt.Errorf("email %q is already registered", user.Email))
		}
		taken, err = as.userRepo.UsernameExists(dbc, user.Username)
		if err != nil {
			return fmt.Errorf("check username: %w", err)
		}
		if taken {
			return apierr.Conflict("username_taken", fmt.Errorf("username %q is already taken", user.Username))
		}
		if _, err := as.userRepo.Create(dbc, []*types.User{user}); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apierr.Conflict("user_exists", err)
			}
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	}); err != nil {
		as.metrics.IncSecurityEvent("register_rejected")
		return nil, err
	}
	as.metrics.IncSecurityEvent("register")
	as.log.Info("user registered", "user_id", user.ID)
	return user, nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		as.metrics.IncSecurityEvent("login_failed")
		return "", apierr.BadRequest("invalid_credentials", ErrInvalidCredentials)
	}

	users, err := as.userRepo.GetByEmails(dbctx.Context{Ctx: ctx}, []string{email})
	if err != nil {
		return "", fmt.Errorf("load user by email: %w", err)
	}
	if len(users) == 0 || users[0] == nil {
		as.metrics.IncSecurityEvent("login_failed")
		return "", apierr.BadRequest("invalid_credentials", ErrInvalidCredentials)
	}
	user := users[0]
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		as.metrics.IncSecurityEvent("login_failed")
		return "", apierr.BadRequest("invalid_credentials", ErrInvalidCredentials)
	}

	var accessToken string
	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := as.userTokenRepo.DeleteExpired(dbc, time.Now().UTC()); err != nil {
			as.log.Warn("failed to prune expired tokens (ignored)", "error", err)
		}
		now := time.Now().UTC()
		tok, err := as.generateAccessToken(user, now)
		if err != nil {
			return fmt.Errorf("generate access token: %w", err)
		}
		row := &types.UserToken{
			ID:          uuid.New(),
			UserID:      user.ID,
			AccessToken: tok,
			ExpiresAt:   now.Add(as.accessTTL),
		}
		if _, err := as.userTokenRepo.Create(dbc, []*types.UserToken{row}); err != nil {
			return fmt.Errorf("create user token: %w", err)
		}
		accessToken = tok
		return nil
	}); err != nil {
		as.log.Warn("login transaction failed", "error", err)
		return "", err
	}
	as.metrics.IncSecurityEvent("login")
	return accessToken, nil
}

func (as *authService) LogoutUser(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return apierr.Unauthorized("unauthorized", ErrUnauthenticated)
	}
	n, err := as.userTokenRepo.DeleteByAccessTokens(dbctx.Context{Ctx: ctx}, []string{rd.TokenString})
	if err != nil {
		return fmt.Errorf("delete user token: %w", err)
	}
	if n == 0 {
		return apierr.Unauthorized("invalid_token", ErrInvalidToken)
	}
	as.metrics.IncSecurityEvent("logout")
	return nil
}

func (as *authService) generateAccessToken(user *types.User, now time.Time) (string, error) {
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

// SetContextFromToken attaches the token's user to ctx. The token must verify
// and still have a user_token row; an empty token leaves ctx anonymous.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, nil
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		as.metrics.IncSecurityEvent("token_rejected")
		return ctx, apierr.Unauthorized("invalid_token", fmt.Errorf("%w: %v", ErrInvalidToken, err))
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		as.metrics.IncSecurityEvent("token_rejected")
		return ctx, apierr.Unauthorized("invalid_token", ErrInvalidToken)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apierr.Unauthorized("invalid_token", fmt.Errorf("invalid user id in token: %w", err))
	}

	found, err := as.userTokenRepo.GetByAccessTokens(dbctx.Context{Ctx: ctx}, []string{tokenString})
	if err != nil {
		return ctx, fmt.Errorf("load user token: %w", err)
	}
	if len(found) == 0 || found[0] == nil || found[0].UserID != userID || !found[0].ExpiresAt.After(time.Now()) {
		as.metrics.IncSecurityEvent("token_revoked")
		return ctx, apierr.Unauthorized("invalid_token", ErrInvalidToken)
	}

	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
	}), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
