package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PaulBabatuyi/bookhub/internal/auth"
	"github.com/PaulBabatuyi/bookhub/internal/data"
	"github.com/PaulBabatuyi/bookhub/internal/logging"
	"github.com/PaulBabatuyi/bookhub/internal/normalize"
)

// UserStore is the subset of data.UsersStore the credential service needs.
type UserStore interface {
	CreateUser(ctx context.Context, email, name, passwordHash string) (*data.User, error)
	GetUserByEmail(ctx context.Context, email string) (*data.User, error)
}

// TokenManager issues and verifies bearer tokens.
type TokenManager interface {
	GenerateToken(userID bson.ObjectID, name, email string) (string, time.Time, error)
	VerifyToken(token string) (*auth.Claims, error)
}

// PasswordHasher hashes passwords off the request path.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Compare(ctx context.Context, hash, password string) error
	CompareDummy(ctx context.Context, password string) error
}

type AccountsOptions struct {
	// AllowedEmailDomain restricts signups to one email domain when set.
	AllowedEmailDomain string
	StorageTimeout     time.Duration
}

// Accounts is the credential service.
type Accounts struct {
	users  UserStore
	tokens TokenManager
	hasher PasswordHasher
	log    logging.Logger
	opts   AccountsOptions
}

func NewAccounts(users UserStore, tokens TokenManager, hasher PasswordHasher, log logging.Logger, opts AccountsOptions) *Accounts {
	return &Accounts{users: users, tokens: tokens, hasher: hasher, log: log, opts: opts}
}

const maxPasswordBytes = 72

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Name     string `json:"name" validate:"required,max=100"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by a successful signup or login.
type AuthResult struct {
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Register creates an account and signs the new user in.
func (a *Accounts) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = normalize.Email(in.Email)
	in.Name = normalize.Text(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if !normalize.HasDomain(in.Email, a.opts.AllowedEmailDomain) {
		return nil, invalid("email must end with %s", domainSuffix(a.opts.AllowedEmailDomain))
	}
	// the validator counts runes; bcrypt refuses anything over 72 bytes
	if len(in.Password) > maxPasswordBytes {
		return nil, invalid("password must be at most %d bytes", maxPasswordBytes)
	}

	hash, err := a.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, internal("failed to hash password", err)
	}

	sctx, cancel := withTimeout(ctx, a.opts.StorageTimeout)
	defer cancel()

	user, err := a.users.CreateUser(sctx, in.Email, in.Name, hash)
	if err != nil {
		if errors.Is(err, data.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, internal("failed to create user", err)
	}

	a.log.Info(ctx, "user registered", "user_id", user.ID.Hex())
	return a.issue(user)
}

// Authenticate checks credentials and signs the user in. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (a *Accounts) Authenticate(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = normalize.Email(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	sctx, cancel := withTimeout(ctx, a.opts.StorageTimeout)
	user, err := a.users.GetUserByEmail(sctx, in.Email)
	cancel()
	if err != nil {
		if !errors.Is(err, data.ErrNotFound) {
			return nil, internal("failed to load user", err)
		}
		if err := a.hasher.CompareDummy(ctx, in.Password); err != nil && !errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, internal("failed to verify password", err)
		}
		return nil, ErrInvalidCredentials
	}

	if err := a.hasher.Compare(ctx, user.PasswordHash, in.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, internal("failed to verify password", err)
	}

	return a.issue(user)
}

// Verify turns a bearer token into an identity.
func (a *Accounts) Verify(token string) (*Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}
	claims, err := a.tokens.VerifyToken(token)
	if err != nil {
		return nil, &Error{Kind: KindUnauthorized, Message: ErrBadToken.Message, Err: err}
	}
	return &Identity{UserID: claims.UserID, Name: claims.Name, Email: claims.Email}, nil
}

func (a *Accounts) issue(user *data.User) (*AuthResult, error) {
	token, expiresAt, err := a.tokens.GenerateToken(user.ID, user.Name, user.Email)
	if err != nil {
		return nil, internal("failed to generate token", err)
	}
	return &AuthResult{
		UserID:    user.ID.Hex(),
		Name:      user.Name,
		Email:     user.Email,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func domainSuffix(d string) string {
	d = normalize.Email(d)
	if !strings.HasPrefix(d, "@") {
		d = "@" + d
	}
	return d
}
