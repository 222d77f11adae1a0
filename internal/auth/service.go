package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// ErrInvalidCredentials covers both unknown email and wrong password. Login
// never discloses which one failed, so account existence cannot be probed.
var ErrInvalidCredentials = errors.New("incorrect email or password")

// FieldError is a single request-level validation failure, safe to return to
// the client.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects every failed rule for a registration attempt.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, fe := range v {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return strings.Join(msgs, "; ")
}

// Service orchestrates login and registration over the injected store,
// hasher and token issuer.
type Service struct {
	store  Store
	hasher *Hasher
	tokens *TokenIssuer
}

func NewService(store Store, hasher *Hasher, tokens *TokenIssuer) *Service {
	return &Service{store: store, hasher: hasher, tokens: tokens}
}

// Login verifies the credentials and, on success, returns the user and a
// freshly issued session token.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !s.hasher.Verify(password, user.PasswordHash, user.PasswordSalt) {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(user.UserID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Register validates the input, stores the new user and issues a session
// token. Validation failures have no side effects; a duplicate email is
// reported as ErrEmailTaken whether it is caught by the lookup or by the
// unique index during a concurrent race. The admin flag is always assigned
// server-side: new accounts start as regular users.
func (s *Service) Register(ctx context.Context, email, name, password string) (*User, string, error) {
	if verr := validateRegistration(email, name, password); len(verr) > 0 {
		return nil, "", verr
	}

	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, "", err
	}

	hash, salt, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", err
	}
	user := &User{
		UserID:       uuid.New().String(),
		Email:        NormalizeEmail(email),
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		PasswordSalt: salt,
		IsAdmin:      false,
	}
	if err := s.store.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user.UserID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func validateRegistration(email, name, password string) ValidationErrors {
	var errs ValidationErrors

	normalized := NormalizeEmail(email)
	if normalized == "" {
		errs = append(errs, FieldError{Field: "email", Message: "Email is required"})
	} else if addr, err := mail.ParseAddress(normalized); err != nil || addr.Address != normalized {
		errs = append(errs, FieldError{Field: "email", Message: "Email must be a valid address"})
	}

	if strings.TrimSpace(name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "Name is required"})
	}

	switch {
	case password == "":
		errs = append(errs, FieldError{Field: "password", Message: "Password cannot be empty"})
	case len([]rune(password)) < 8:
		errs = append(errs, FieldError{Field: "password", Message: "Password must be at least 8 characters long"})
	case !hasNonAlphanumeric(password):
		errs = append(errs, FieldError{Field: "password", Message: "Password must contain at least one special character"})
	case containsName(password, name):
		errs = append(errs, FieldError{Field: "password", Message: "Password must not contain your name"})
	}

	return errs
}

func hasNonAlphanumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// containsName folds both strings to NFKC lowercase before the substring
// check, so visually equivalent spellings of the name still count.
func containsName(password, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	fold := func(s string) string { return strings.ToLower(norm.NFKC.String(s)) }
	return strings.Contains(fold(password), fold(name))
}
