package services

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/devsync/teamchat-api/internal/constants"
	"github.com/devsync/teamchat-api/internal/models"
	"github.com/devsync/teamchat-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrUserNotFound         = errors.New("user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrFailedToCreateUser   = errors.New("failed to create user")
)

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo repository.UserRepository
	creds    *Credentials
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, creds *Credentials) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		creds:    creds,
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	Pic         string
	GithubToken string
}

// Register creates a new user. The provider token is encrypted before it
// is stored.
func (s *AuthService) Register(input RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	token := strings.TrimSpace(input.GithubToken)
	if name == "" || email == "" || input.Password == "" || token == "" {
		return nil, validationError("name, email, password and GitHub token are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, validationError("invalid email address")
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}
	sealed, err := s.creds.Seal(token)
	if err != nil {
		return nil, err
	}

	pic := strings.TrimSpace(input.Pic)
	if pic == "" {
		pic = constants.DefaultProfilePicture
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Pic:          pic,
		GithubToken:  sealed,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateUser, err)
	}
	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByEmail(input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// SearchUsers finds other users by name or email.
func (s *AuthService) SearchUsers(requesterID uint64, term string) ([]models.User, error) {
	users, err := s.userRepo.Search(term, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}

// UpdateGithubToken rotates the stored provider token. Nothing is written
// when the new token equals the one already stored.
func (s *AuthService) UpdateGithubToken(userID uint64, token string) (changed bool, err error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return false, validationError("GitHub token is required")
	}
	user, err := s.GetUser(userID)
	if err != nil {
		return false, err
	}

	if user.HasCredential() {
		current, err := s.creds.TokenFor(user)
		if err == nil && current == token {
			return false, nil
		}
	}

	sealed, err := s.creds.Seal(token)
	if err != nil {
		return false, err
	}
	if err := s.userRepo.UpdateGithubToken(userID, sealed); err != nil {
		return false, fmt.Errorf("failed to store token: %w", err)
	}
	return true, nil
}
