package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/devsync/teamchat-api/internal/metrics"
	"github.com/devsync/teamchat-api/internal/models"
	"github.com/devsync/teamchat-api/internal/repository"
	"github.com/rs/zerolog/log"
)

// SyncFailure reports that a membership change was stored but the
// provider collaborator update did not go through.
type SyncFailure struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// MembershipResult is the chat after a membership change, plus the
// outcome of the collaborator sync when it failed.
type MembershipResult struct {
	Chat *models.Chat
	Sync *SyncFailure
}

// ChatService manages chat rooms and keeps provider collaborators in line
// with group membership.
type ChatService struct {
	users   repository.UserRepository
	chats   repository.ChatRepository
	gateway Gateway
	creds   *Credentials
}

func NewChatService(users repository.UserRepository, chats repository.ChatRepository, gateway Gateway, creds *Credentials) *ChatService {
	return &ChatService{users: users, chats: chats, gateway: gateway, creds: creds}
}

// GetChat loads a chat.
func (s *ChatService) GetChat(chatID uint64) (*models.Chat, error) {
	chat, err := s.chats.FindByID(chatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}
	return chat, nil
}

// RequireMember loads a chat and checks userID belongs to it.
func (s *ChatService) RequireMember(chatID, userID uint64) (*models.Chat, error) {
	chat, err := s.GetChat(chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasMember(userID) {
		return nil, ErrNotChatMember
	}
	return chat, nil
}

// AccessChat returns the direct chat between requester and otherID,
// creating it on first access.
func (s *ChatService) AccessChat(requesterID, otherID uint64) (*models.Chat, error) {
	if otherID == 0 {
		return nil, validationError("userId is required")
	}
	if otherID == requesterID {
		return nil, validationError("cannot open a direct chat with yourself")
	}
	if _, err := s.users.FindByID(otherID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	chat, err := s.chats.FindDirect(requesterID, otherID)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up direct chat: %w", err)
	}

	chat = &models.Chat{ChatName: "sender"}
	if err := s.chats.CreateWithMembers(chat, []uint64{requesterID, otherID}); err != nil {
		return nil, fmt.Errorf("failed to create direct chat: %w", err)
	}
	return s.GetChat(chat.ID)
}

// FetchChats lists the requester's chats, most recently active first.
func (s *ChatService) FetchChats(requesterID uint64) ([]models.Chat, error) {
	chats, err := s.chats.ListForUser(requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	return chats, nil
}

// RenameChat sets a new display name.
func (s *ChatService) RenameChat(chatID uint64, name string) (*models.Chat, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("chat name is required")
	}
	if err := s.chats.Rename(chatID, name); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to rename chat: %w", err)
	}
	return s.GetChat(chatID)
}

// groupForChange loads a group chat with a bound repository.
func (s *ChatService) groupForChange(chatID uint64) (*models.Chat, error) {
	chat, err := s.GetChat(chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsGroupChat || chat.GroupAdmin == nil {
		return nil, ErrNotGroupChat
	}
	return chat, nil
}

// AddMember adds newUserID to the group and then invites them as a
// collaborator. The membership is kept even if the invite fails; the
// failure is reported in the result. Groups without a repository skip
// the invite. The sync runs to completion even if ctx is cancelled.
func (s *ChatService) AddMember(ctx context.Context, chatID, requesterID, newUserID uint64) (*MembershipResult, error) {
	ctx = context.WithoutCancel(ctx)
	chat, err := s.groupForChange(chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsAdmin(requesterID) {
		return nil, ErrNotGroupAdmin
	}
	if chat.HasMember(newUserID) {
		return nil, ErrAlreadyMember
	}
	newUser, err := s.users.FindByID(newUserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.chats.AddMember(chatID, newUserID); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	result := &MembershipResult{}
	if chat.RepositoryName == "" {
		metrics.MembershipSyncTotal.WithLabelValues("add", "skipped").Inc()
	} else if err := s.syncAdd(ctx, chat, newUser); err != nil {
		result.Sync = &SyncFailure{Kind: KindOf(err), Message: err.Error()}
		metrics.MembershipSyncTotal.WithLabelValues("add", string(result.Sync.Kind)).Inc()
		log.Warn().Err(err).Uint64("chat_id", chatID).Uint64("member", newUserID).
			Str("kind", string(result.Sync.Kind)).Msg("member added to chat but collaborator sync failed")
	} else {
		metrics.MembershipSyncTotal.WithLabelValues("add", "ok").Inc()
	}

	if result.Chat, err = s.GetChat(chatID); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ChatService) syncAdd(ctx context.Context, chat *models.Chat, newUser *models.User) error {
	if chat.RepositoryName == "" {
		return ErrNoRepository
	}
	memberTok, err := s.creds.TokenFor(newUser)
	if err != nil {
		return err
	}
	adminTok, err := s.creds.TokenFor(chat.GroupAdmin)
	if err != nil {
		return err
	}
	owner, err := s.gateway.ResolveUsername(ctx, adminTok)
	if err != nil {
		return err
	}
	login, err := s.gateway.ResolveUsername(ctx, memberTok)
	if err != nil {
		return err
	}
	return s.gateway.AddCollaborator(ctx, adminTok, owner, chat.RepositoryName, login)
}

// RemoveMember removes userID from the group. The admin may remove anyone
// but themself; any member may remove themself. The removed user's login
// must resolve first; if it does not, membership is left unchanged.
func (s *ChatService) RemoveMember(ctx context.Context, chatID, requesterID, userID uint64) (*MembershipResult, error) {
	ctx = context.WithoutCancel(ctx)
	chat, err := s.groupForChange(chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsAdmin(requesterID) && requesterID != userID {
		return nil, ErrNotGroupAdmin
	}
	if chat.IsAdmin(userID) {
		return nil, ErrCannotRemoveAdmin
	}

	var removed *models.User
	for i := range chat.Members {
		if chat.Members[i].UserID == userID {
			removed = &chat.Members[i].User
			break
		}
	}
	if removed == nil {
		return nil, ErrNotChatMember
	}

	// A member who never had a token was never invited, so there is
	// nothing to revoke. Any other resolution failure keeps them in.
	hasRepo := chat.RepositoryName != ""
	var login string
	if hasRepo {
		memberTok, err := s.creds.TokenFor(removed)
		switch {
		case errors.Is(err, ErrCredentialMissing):
		case err != nil:
			return nil, err
		default:
			if login, err = s.gateway.ResolveUsername(ctx, memberTok); err != nil {
				return nil, err
			}
		}
	}

	if err := s.chats.RemoveMember(chatID, userID); err != nil {
		return nil, fmt.Errorf("failed to remove member: %w", err)
	}

	result := &MembershipResult{}
	if !hasRepo {
		metrics.MembershipSyncTotal.WithLabelValues("remove", "skipped").Inc()
	} else if login == "" {
		result.Sync = &SyncFailure{Kind: KindCredentialMissing, Message: ErrCredentialMissing.Error()}
		metrics.MembershipSyncTotal.WithLabelValues("remove", string(KindCredentialMissing)).Inc()
	} else if err := s.syncRemove(ctx, chat, login); err != nil {
		result.Sync = &SyncFailure{Kind: KindOf(err), Message: err.Error()}
		metrics.MembershipSyncTotal.WithLabelValues("remove", string(result.Sync.Kind)).Inc()
		log.Warn().Err(err).Uint64("chat_id", chatID).Uint64("member", userID).
			Str("kind", string(result.Sync.Kind)).Msg("member removed from chat but collaborator sync failed")
	} else {
		metrics.MembershipSyncTotal.WithLabelValues("remove", "ok").Inc()
	}

	if result.Chat, err = s.GetChat(chatID); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ChatService) syncRemove(ctx context.Context, chat *models.Chat, login string) error {
	if chat.RepositoryName == "" {
		return ErrNoRepository
	}
	adminTok, err := s.creds.TokenFor(chat.GroupAdmin)
	if err != nil {
		return err
	}
	owner, err := s.gateway.ResolveUsername(ctx, adminTok)
	if err != nil {
		return err
	}
	return s.gateway.RemoveCollaborator(ctx, adminTok, owner, chat.RepositoryName, login)
}
