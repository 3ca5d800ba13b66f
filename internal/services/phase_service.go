package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/devsync/teamchat-api/internal/models"
	"github.com/devsync/teamchat-api/internal/repository"
	"github.com/rs/zerolog/log"
)

var (
	ErrPhaseNotFound         = errors.New("phase not found")
	ErrPhaseHasOpenTasks     = errors.New("phase still has tasks that are not completed")
	ErrTaskNotFound          = errors.New("task not found")
	ErrInvalidTaskStatus     = errors.New("invalid task status")
	ErrAssigneeNotChatMember = errors.New("assignee is not a member of this chat")
)

// PhaseService handles the ordered phases of a chat.
type PhaseService struct {
	phaseRepo repository.PhaseRepository
}

// NewPhaseService creates a new PhaseService
func NewPhaseService(phaseRepo repository.PhaseRepository) *PhaseService {
	return &PhaseService{phaseRepo: phaseRepo}
}

// AddPhase appends a phase to chatID.
func (s *PhaseService) AddPhase(chatID uint64, name string) (*models.Phase, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("phase name is required")
	}
	phase := &models.Phase{ChatID: chatID, PhaseName: name}
	if err := s.phaseRepo.Create(phase); err != nil {
		return nil, fmt.Errorf("failed to create phase: %w", err)
	}
	return phase, nil
}

// ListPhases returns the chat's phases by order.
func (s *PhaseService) ListPhases(chatID uint64) ([]models.Phase, error) {
	phases, err := s.phaseRepo.ListByChat(chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list phases: %w", err)
	}
	return phases, nil
}

// GetPhase loads a phase by ID.
func (s *PhaseService) GetPhase(phaseID uint64) (*models.Phase, error) {
	phase, err := s.phaseRepo.FindByID(phaseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPhaseNotFound
		}
		return nil, fmt.Errorf("failed to load phase: %w", err)
	}
	return phase, nil
}

// DeletePhase removes a phase of chatID. It is refused while any task in
// the phase is not completed; later phases move up by one.
func (s *PhaseService) DeletePhase(chatID, phaseID uint64) error {
	phase, err := s.GetPhase(phaseID)
	if err != nil {
		return err
	}
	if phase.ChatID != chatID {
		return ErrPhaseNotFound
	}

	open, err := s.phaseRepo.CountIncompleteTasks(phaseID)
	if err != nil {
		return fmt.Errorf("failed to count tasks: %w", err)
	}
	if open > 0 {
		return ErrPhaseHasOpenTasks
	}

	if err := s.phaseRepo.Delete(phase); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPhaseNotFound
		}
		return fmt.Errorf("failed to delete phase: %w", err)
	}
	log.Info().Uint64("chat_id", chatID).Uint64("phase_id", phaseID).Int("order", phase.Order).Msg("phase deleted")
	return nil
}
