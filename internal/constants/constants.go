package constants

// Context and session keys
const (
	ContextKeyUserID    = "user_id"
	ContextKeyRequestID = "request_id"
	ContextKeyChat      = "chat"
	ContextKeyPhase     = "phase"
	SessionCookieName   = "teamchat_session"
)

// Validation limits
const (
	MinPasswordLength = 6
	MaxMessageLength  = 4000
	MaxUploadBytes    = 25 << 20
)

// Pagination defaults
const (
	MinPageSize     = 1
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// AI suggestion limits
const (
	MaxAIGeneratedTasks = 20
)

// DefaultProfilePicture is used when a user registers without a picture URL.
const DefaultProfilePicture = "https://icon-library.com/images/anonymous-avatar-icon/anonymous-avatar-icon-25.jpg"

// Seed commit written into every freshly provisioned repository.
const (
	SeedFilePath      = "README.md"
	SeedFileContent   = "# New Repo\nThis is a new repository"
	SeedCommitMessage = "Initial commit"
)
