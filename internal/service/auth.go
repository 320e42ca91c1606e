package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"todoapp/internal/apperr"
	"todoapp/internal/models"
	"todoapp/internal/notify"
	"todoapp/internal/oauth"
	"todoapp/internal/repository"
	"todoapp/internal/token"
	"todoapp/pkg/logger"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

var (
	errInvalidCredentials = apperr.Unauthorized("Invalid email or password")
	errDeactivated        = apperr.Forbidden("Account is deactivated")
	errUserNotFound       = apperr.NotFound("User not found")
)

// Notifier accepts best-effort notifications. Implementations must not block
// the caller and must not report delivery failures.
type Notifier interface {
	Notify(ctx context.Context, msg notify.Message)
}

// Session is the result of any successful authentication.
type Session struct {
	User   models.UserProfile
	Tokens token.Pair
}

// RegisterInput carries the raw registration fields.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Auth implements registration, password and Google login, refresh and
// identity lookup.
type Auth struct {
	store    *repository.Store
	issuer   *token.Issuer
	google   oauth.Verifier
	notifier Notifier
	hashCost int
}

func NewAuth(store *repository.Store, issuer *token.Issuer, google oauth.Verifier, notifier Notifier) *Auth {
	return &Auth{
		store:    store,
		issuer:   issuer,
		google:   google,
		notifier: notifier,
		hashCost: bcrypt.DefaultCost,
	}
}

// Register creates a password account and signs it in.
func (s *Auth) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email := models.NormalizeEmail(in.Email)
	first := strings.TrimSpace(in.FirstName)
	last := strings.TrimSpace(in.LastName)
	for _, f := range []struct{ name, value string }{
		{"email", email},
		{"password", in.Password},
		{"first_name", first},
		{"last_name", last},
	} {
		if f.value == "" {
			return nil, apperr.BadRequest(f.name + " is required")
		}
	}
	if !emailPattern.MatchString(email) {
		return nil, apperr.BadRequest("Invalid email format")
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		return nil, apperr.BadRequest("Password must be at least 6 characters long")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, apperr.BadRequest("Password must be at most 72 bytes long")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "Registration failed")
	}
	hashed := string(hash)

	user := &models.User{
		Email:        email,
		PasswordHash: &hashed,
		FirstName:    first,
		LastName:     last,
		IsActive:     true,
	}
	var session *Session
	err = s.store.WithTx(ctx, func(tx *repository.Store) error {
		existing, err := tx.Users().FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return repository.ErrEmailTaken
		}
		if err := tx.Users().Insert(ctx, user); err != nil {
			return err
		}
		session, err = s.newSession(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, failed(err, "Registration failed")
	}

	logger.Info(ctx, "User registered", "user_id", user.ID)
	s.notifier.Notify(context.WithoutCancel(ctx), notify.Welcome(user.Email, user.FirstName))
	return session, nil
}

// Login authenticates with email and password.
func (s *Auth) Login(ctx context.Context, email, password string) (*Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperr.BadRequest("Email and password are required")
	}
	var session *Session
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		user, err := tx.Users().FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if user == nil || user.PasswordHash == nil {
			return errInvalidCredentials
		}
		if bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)) != nil {
			return errInvalidCredentials
		}
		if !user.IsActive {
			return errDeactivated
		}
		session, err = s.newSession(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, failed(err, "Login failed")
	}
	return session, nil
}

// LoginWithGoogle verifies a Google ID token and signs in the matching
// account, linking or creating it as needed.
func (s *Auth) LoginWithGoogle(ctx context.Context, idToken string) (*Session, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, apperr.BadRequest("Google token is required")
	}
	identity, err := s.google.Verify(ctx, idToken)
	if err != nil {
		logger.Warn(ctx, "Google token rejected", "error", err)
		return nil, apperr.Unauthorized("Invalid Google token")
	}

	var (
		session  *Session
		created  *models.User
		inactive bool
	)
	err = s.store.WithTx(ctx, func(tx *repository.Store) error {
		user, err := tx.Users().FindByEmail(ctx, identity.Email)
		if err != nil {
			return err
		}
		switch {
		case user == nil:
			user = &models.User{
				Email:          identity.Email,
				FirstName:      identity.FirstName,
				LastName:       identity.LastName,
				IsGoogleUser:   true,
				GoogleID:       &identity.GoogleID,
				ProfilePicture: optionalString(identity.ProfilePicture),
				IsActive:       true,
			}
			if err := tx.Users().Insert(ctx, user); err != nil {
				return err
			}
			created = user
		case !user.IsGoogleUser:
			user.IsGoogleUser = true
			user.GoogleID = &identity.GoogleID
			user.ProfilePicture = optionalString(identity.ProfilePicture)
			if err := tx.Users().Update(ctx, user); err != nil {
				return err
			}
			logger.Info(ctx, "Google identity linked", "user_id", user.ID)
		}
		// The link is kept even when the account turns out to be inactive.
		if !user.IsActive {
			inactive = true
			return nil
		}
		session, err = s.newSession(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, failed(err, "Google login failed")
	}
	if inactive {
		return nil, errDeactivated
	}

	if created != nil {
		logger.Info(ctx, "User registered with Google", "user_id", created.ID)
		s.notifier.Notify(context.WithoutCancel(ctx), notify.Welcome(created.Email, created.FirstName))
	}
	return session, nil
}

// Refresh issues a new pair for the subject of an already verified refresh token.
func (s *Auth) Refresh(ctx context.Context, userID uint) (*Session, error) {
	var session *Session
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		user, err := tx.Users().FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil || !user.IsActive {
			return apperr.NotFound("User not found or inactive")
		}
		session, err = s.newSession(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, failed(err, "Token refresh failed")
	}
	return session, nil
}

// CurrentUser resolves a verified token subject to its stored user.
func (s *Auth) CurrentUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to load user")
	}
	if user == nil {
		return nil, errUserNotFound
	}
	return user, nil
}

// Profile builds the public view of user, including its todo count.
func (s *Auth) Profile(ctx context.Context, user *models.User) (models.UserProfile, error) {
	n, err := s.store.Todos(user.ID).Count(ctx)
	if err != nil {
		return models.UserProfile{}, apperr.Wrap(err, "Failed to load user")
	}
	return user.Profile(n), nil
}

func (s *Auth) newSession(ctx context.Context, tx *repository.Store, user *models.User) (*Session, error) {
	n, err := tx.Todos(user.ID).Count(ctx)
	if err != nil {
		return nil, err
	}
	pair, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: user.Profile(n), Tokens: pair}, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// failed keeps taxonomy errors as they are and wraps anything else as an
// internal error with the operation's public message.
func failed(err error, message string) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Wrap(err, message)
}
