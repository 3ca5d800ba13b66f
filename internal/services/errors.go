package services

import (
	"errors"
	"fmt"

	"github.com/devsync/teamchat-api/internal/github"
)

// ErrorKind is the caller-facing classification of a failure.
type ErrorKind string

const (
	KindValidation           ErrorKind = "validation"
	KindCredentialMissing    ErrorKind = "credential_missing"
	KindProviderUnauthorized ErrorKind = "provider_unauthorized"
	KindProviderNotFound     ErrorKind = "provider_not_found"
	KindProviderRateLimited  ErrorKind = "provider_rate_limited"
	KindProviderOther        ErrorKind = "provider_other"
	KindPersistence          ErrorKind = "persistence"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrCredentialMissing = errors.New("no provider token on file")

	// ErrCredentialUnreadable means the stored ciphertext could not be
	// decrypted; it is treated like a rejected token.
	ErrCredentialUnreadable = errors.New("stored provider token cannot be decrypted")

	ErrChatNotFound      = errors.New("chat not found")
	ErrNotGroupChat      = errors.New("chat is not a group chat")
	ErrNotGroupAdmin     = errors.New("only the group admin can do this")
	ErrNotChatMember     = errors.New("user is not a member of this chat")
	ErrAlreadyMember     = errors.New("user is already a member of this chat")
	ErrCannotRemoveAdmin = errors.New("the group admin cannot be removed")
	ErrNoRepository      = errors.New("chat has no bound repository")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// KindOf classifies err for callers. Unknown errors are persistence failures.
func KindOf(err error) ErrorKind {
	var perr *ProvisionError
	if errors.As(err, &perr) {
		return perr.Kind
	}
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrCredentialMissing):
		return KindCredentialMissing
	case errors.Is(err, ErrCredentialUnreadable):
		return KindProviderUnauthorized
	}
	var gerr *github.Error
	if errors.As(err, &gerr) {
		return providerKind(gerr.Kind)
	}
	return KindPersistence
}

func providerKind(k github.Kind) ErrorKind {
	switch k {
	case github.KindUnauthorized:
		return KindProviderUnauthorized
	case github.KindNotFound:
		return KindProviderNotFound
	case github.KindRateLimited:
		return KindProviderRateLimited
	default:
		return KindProviderOther
	}
}
