package repository

import (
	"errors"

	"github.com/devsync/teamchat-api/internal/models"
	"github.com/devsync/teamchat-api/internal/utils"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("record not found")

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// FindByIDs returns the users that exist among ids, in id order
	FindByIDs(ids []uint64) ([]models.User, error)

	// Search matches name or email case-insensitively, excluding one user
	Search(term string, excludeID uint64) ([]models.User, error)

	// UpdateGithubToken stores an already encrypted token
	UpdateGithubToken(id uint64, ciphertext string) error
}

// ChatRepository defines the interface for chat room data access
type ChatRepository interface {
	// CreateWithMembers creates a chat and its membership rows atomically
	CreateWithMembers(chat *models.Chat, memberIDs []uint64) error

	// FindByID loads a chat with members, admin and latest message
	FindByID(id uint64) (*models.Chat, error)

	// FindDirect finds the non-group chat between two users
	FindDirect(userA, userB uint64) (*models.Chat, error)

	// ListForUser lists chats containing userID, most recently updated first
	ListForUser(userID uint64) ([]models.Chat, error)

	// Rename sets the chat's display name
	Rename(id uint64, name string) error

	// AddMember adds a membership row and touches the chat
	AddMember(chatID, userID uint64) error

	// RemoveMember deletes a membership row and touches the chat
	RemoveMember(chatID, userID uint64) error

	// IsMember reports whether userID belongs to chatID
	IsMember(chatID, userID uint64) (bool, error)

	// SetLatestMessage points the chat at messageID and touches it
	SetLatestMessage(chatID, messageID uint64) error

	// SetMeeting stores the lazily created meeting details
	SetMeeting(chatID uint64, meetingID, joinURL, password string) error
}

// MessageRepository defines the interface for message data access
type MessageRepository interface {
	// Create creates a new message
	Create(msg *models.Message) error

	// ListByChat lists messages oldest first with the sender loaded
	ListByChat(chatID uint64, params utils.PaginationParams) ([]models.Message, int64, error)
}

// PhaseRepository defines the interface for phase data access.
// Orders within a chat stay dense (1..N).
type PhaseRepository interface {
	// Create appends a phase at order count+1
	Create(phase *models.Phase) error

	// FindByID finds a phase by ID
	FindByID(id uint64) (*models.Phase, error)

	// ListByChat lists phases by order
	ListByChat(chatID uint64) ([]models.Phase, error)

	// CountIncompleteTasks counts tasks of the phase not yet completed
	CountIncompleteTasks(phaseID uint64) (int64, error)

	// Delete removes the phase and its tasks and closes the order gap
	Delete(phase *models.Phase) error
}

// TaskRepository defines the interface for task data access.
// Orders within a phase stay dense (1..N).
type TaskRepository interface {
	// Create appends a task at order count+1 within its phase
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// ListByPhase lists tasks by order with the assignee loaded
	ListByPhase(phaseID uint64) ([]models.Task, error)

	// UpdateStatus sets status and the derived completed flag
	UpdateStatus(id uint64, status models.TaskStatus) error

	// Delete removes the task and closes the order gap
	Delete(task *models.Task) error
}
