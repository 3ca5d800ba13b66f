package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devsync/teamchat-api/internal/models"
	"github.com/devsync/teamchat-api/internal/repository"
	"github.com/devsync/teamchat-api/internal/zoom"
	"github.com/rs/zerolog/log"
)

const (
	meetingTopic    = "Group Meeting"
	meetingDuration = 30 * time.Minute
)

var ErrMeetingsNotConfigured = errors.New("video meetings are not configured")

// MeetingCreator is implemented by *zoom.Client.
type MeetingCreator interface {
	CreateMeeting(ctx context.Context, topic string, duration time.Duration) (*zoom.Meeting, error)
}

// MeetingService hands out one video meeting per chat, created lazily.
type MeetingService struct {
	chats   repository.ChatRepository
	creator MeetingCreator
}

// NewMeetingService returns a service; creator may be nil when meetings
// are not configured.
func NewMeetingService(chats repository.ChatRepository, creator MeetingCreator) *MeetingService {
	return &MeetingService{chats: chats, creator: creator}
}

// JoinOrCreate returns the chat's stored meeting, creating and storing
// one on first use.
func (s *MeetingService) JoinOrCreate(ctx context.Context, chat *models.Chat) (*zoom.Meeting, error) {
	if chat.MeetingID != nil && chat.JoinURL != nil {
		m := &zoom.Meeting{ID: *chat.MeetingID, JoinURL: *chat.JoinURL}
		if chat.MeetingPassword != nil {
			m.Password = *chat.MeetingPassword
		}
		return m, nil
	}
	if s.creator == nil {
		return nil, ErrMeetingsNotConfigured
	}

	meeting, err := s.creator.CreateMeeting(ctx, meetingTopic, meetingDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create meeting: %w", err)
	}
	if err := s.chats.SetMeeting(chat.ID, meeting.ID, meeting.JoinURL, meeting.Password); err != nil {
		return nil, fmt.Errorf("failed to store meeting: %w", err)
	}
	log.Info().Uint64("chat_id", chat.ID).Str("meeting_id", meeting.ID).Msg("meeting created")
	return meeting, nil
}
