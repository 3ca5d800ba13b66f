package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/devsync/teamchat-api/internal/constants"
	"github.com/devsync/teamchat-api/internal/metrics"
	"github.com/devsync/teamchat-api/internal/models"
	"github.com/devsync/teamchat-api/internal/repository"
	"github.com/devsync/teamchat-api/internal/utils"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Step names a stage of group provisioning.
type Step string

const (
	StepValidating          Step = "validating"
	StepResolvingOwner      Step = "resolving_owner"
	StepCreatingRepo        Step = "creating_repo"
	StepAddingCollaborators Step = "adding_collaborators"
	StepSeedingCommit       Step = "seeding_commit"
	StepCreatingBranches    Step = "creating_branches"
	StepPersistingChat      Step = "persisting_chat"
	StepDone                Step = "done"
)

// CreateGroupInput is a request to create a repository-backed group chat.
type CreateGroupInput struct {
	RequesterID    uint64
	MemberIDs      []uint64
	GroupName      string
	RepositoryName string
}

// MemberFailure records one member's failed fan-out attempt.
type MemberFailure struct {
	UserID  uint64    `json:"user_id"`
	Name    string    `json:"name"`
	Step    Step      `json:"step"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// MemberBranch is the branch created for one member.
type MemberBranch struct {
	UserID uint64 `json:"user_id"`
	Branch string `json:"branch"`
}

// ProvisionResult is returned once the chat is persisted. Failures lists
// every member whose collaborator or branch step did not succeed.
type ProvisionResult struct {
	Chat     *models.Chat
	Owner    string
	Branches []MemberBranch
	Failures []MemberFailure
}

// ProvisionError aborts the workflow. Repository is set when a repository
// was already created on the provider; it is left in place.
type ProvisionError struct {
	Step          Step
	LastCompleted Step
	Kind          ErrorKind
	Repository    string
	Err           error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("group provisioning failed at %s: %v", e.Step, e.Err)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// Provisioner turns a create-group request into a provider repository with
// collaborators and per-member branches, then persists the chat.
type Provisioner struct {
	users         repository.UserRepository
	chats         repository.ChatRepository
	gateway       Gateway
	creds         *Credentials
	defaultBranch string
	fanOut        int
}

type ProvisionerConfig struct {
	DefaultBranch string
	FanOutLimit   int
}

func NewProvisioner(users repository.UserRepository, chats repository.ChatRepository, gateway Gateway, creds *Credentials, cfg ProvisionerConfig) *Provisioner {
	if cfg.DefaultBranch == "" {
		cfg.DefaultBranch = "main"
	}
	if cfg.FanOutLimit <= 0 {
		cfg.FanOutLimit = 1
	}
	return &Provisioner{
		users:         users,
		chats:         chats,
		gateway:       gateway,
		creds:         creds,
		defaultBranch: cfg.DefaultBranch,
		fanOut:        cfg.FanOutLimit,
	}
}

// provisioning is the request-scoped state carried between steps.
type provisioning struct {
	input     CreateGroupInput
	requester *models.User
	members   []models.User
	ownerTok  string
	owner     string
	repo      string
	last      Step
	result    ProvisionResult
}

func (p *provisioning) fail(step Step, err error) *ProvisionError {
	return &ProvisionError{Step: step, LastCompleted: p.last, Kind: KindOf(err), Repository: p.repo, Err: err}
}

// CreateGroupChat runs the provisioning workflow. It returns either a fully
// populated result or a *ProvisionError naming the failed step.
func (s *Provisioner) CreateGroupChat(ctx context.Context, input CreateGroupInput) (*ProvisionResult, error) {
	// runs to completion even after the caller's context is cancelled
	ctx = context.WithoutCancel(ctx)
	p := &provisioning{input: input}

	steps := []struct {
		step Step
		run  func(context.Context, *provisioning) error
	}{
		{StepValidating, s.validate},
		{StepResolvingOwner, s.resolveOwner},
		{StepCreatingRepo, s.createRepo},
		{StepAddingCollaborators, s.addCollaborators},
		{StepSeedingCommit, s.seedCommit},
		{StepCreatingBranches, s.createBranches},
		{StepPersistingChat, s.persistChat},
	}
	for _, st := range steps {
		if err := st.run(ctx, p); err != nil {
			perr := p.fail(st.step, err)
			metrics.ProvisionsTotal.WithLabelValues("failed", string(st.step)).Inc()
			log.Error().Err(err).
				Uint64("user_id", input.RequesterID).
				Str("step", string(st.step)).
				Str("last_completed", string(p.last)).
				Str("kind", string(perr.Kind)).
				Str("repository", p.repo).
				Msg("group provisioning aborted")
			return nil, perr
		}
		p.last = st.step
	}

	metrics.ProvisionsTotal.WithLabelValues("succeeded", string(StepDone)).Inc()
	log.Info().
		Uint64("chat_id", p.result.Chat.ID).
		Str("repository", p.repo).
		Int("members", len(p.result.Chat.Members)).
		Int("member_failures", len(p.result.Failures)).
		Msg("group chat provisioned")
	return &p.result, nil
}

func (s *Provisioner) validate(_ context.Context, p *provisioning) error {
	in := p.input
	if len(in.MemberIDs) == 0 {
		return validationError("members are required")
	}
	if strings.TrimSpace(in.GroupName) == "" {
		return validationError("group name is required")
	}
	if strings.TrimSpace(in.RepositoryName) == "" {
		return validationError("repository name is required")
	}

	requester, err := s.users.FindByID(in.RequesterID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return validationError("requester %d does not exist", in.RequesterID)
		}
		return fmt.Errorf("failed to load requester: %w", err)
	}
	p.requester = requester

	ids := dedupe(in.MemberIDs)
	found, err := s.users.FindByIDs(ids)
	if err != nil {
		return fmt.Errorf("failed to load members: %w", err)
	}
	// keep request order so branch-name disambiguation is first-seen
	byID := make(map[uint64]models.User, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			p.members = append(p.members, u)
		}
	}

	if len(chatMemberIDs(p.members, requester.ID)) < 2 {
		return validationError("at least 2 users are required to form a group chat")
	}
	return nil
}

func (s *Provisioner) resolveOwner(ctx context.Context, p *provisioning) error {
	token, err := s.creds.TokenFor(p.requester)
	if err != nil {
		return err
	}
	owner, err := s.gateway.ResolveUsername(ctx, token)
	if err != nil {
		return err
	}
	p.ownerTok = token
	p.owner = owner
	p.result.Owner = owner
	return nil
}

func (s *Provisioner) createRepo(ctx context.Context, p *provisioning) error {
	name, err := s.gateway.CreateRepository(ctx, p.ownerTok, strings.TrimSpace(p.input.RepositoryName))
	if err != nil {
		return err
	}
	p.repo = name
	return nil
}

// addCollaborators invites every member that has a token, except the owner.
// Each member is attempted independently; failures land in the report.
func (s *Provisioner) addCollaborators(ctx context.Context, p *provisioning) error {
	failures := make([]*MemberFailure, len(p.members))

	eg := new(errgroup.Group)
	eg.SetLimit(s.fanOut)
	for i := range p.members {
		i := i
		member := p.members[i]
		if member.ID == p.requester.ID {
			continue
		}
		token, err := s.creds.TokenFor(&member)
		if err != nil {
			if errors.Is(err, ErrCredentialMissing) {
				log.Info().Uint64("member", member.ID).Str("repository", p.repo).
					Msg("member has no provider token, skipping collaborator sync")
			}
			failures[i] = memberFailure(member, StepAddingCollaborators, err)
			continue
		}
		eg.Go(func() error {
			login, err := s.gateway.ResolveUsername(ctx, token)
			if err == nil {
				if strings.EqualFold(login, p.owner) {
					return nil
				}
				err = s.gateway.AddCollaborator(ctx, p.ownerTok, p.owner, p.repo, login)
			}
			if err != nil {
				failures[i] = memberFailure(member, StepAddingCollaborators, err)
			}
			return nil
		})
	}
	_ = eg.Wait()

	p.collect(failures)
	return nil
}

func (s *Provisioner) seedCommit(ctx context.Context, p *provisioning) error {
	_, err := s.gateway.CreateFile(ctx, p.ownerTok, p.owner, p.repo,
		constants.SeedFilePath, []byte(constants.SeedFileContent), constants.SeedCommitMessage, s.defaultBranch)
	return err
}

// createBranches creates one branch per named member from the current head
// of the default branch, re-read for every member.
func (s *Provisioner) createBranches(ctx context.Context, p *provisioning) error {
	names := BranchNames(p.members)
	failures := make([]*MemberFailure, len(p.members))
	created := make([]bool, len(p.members))

	eg := new(errgroup.Group)
	eg.SetLimit(s.fanOut)
	for i := range p.members {
		i := i
		eg.Go(func() error {
			sha, err := s.gateway.BranchHeadSHA(ctx, p.ownerTok, p.owner, p.repo, s.defaultBranch)
			if err == nil {
				err = s.gateway.CreateBranch(ctx, p.ownerTok, p.owner, p.repo, names[i], sha)
			}
			if err != nil {
				failures[i] = memberFailure(p.members[i], StepCreatingBranches, err)
				return nil
			}
			created[i] = true
			return nil
		})
	}
	_ = eg.Wait()

	for i, ok := range created {
		if ok {
			p.result.Branches = append(p.result.Branches, MemberBranch{UserID: p.members[i].ID, Branch: names[i]})
		}
	}
	p.collect(failures)
	return nil
}

func (s *Provisioner) persistChat(_ context.Context, p *provisioning) error {
	adminID := p.requester.ID
	chat := &models.Chat{
		ChatName:       strings.TrimSpace(p.input.GroupName),
		IsGroupChat:    true,
		RepositoryName: p.repo,
		GroupAdminID:   &adminID,
	}
	if err := s.chats.CreateWithMembers(chat, chatMemberIDs(p.members, adminID)); err != nil {
		return fmt.Errorf("failed to persist chat: %w", err)
	}
	full, err := s.chats.FindByID(chat.ID)
	if err != nil {
		return fmt.Errorf("failed to reload chat: %w", err)
	}
	p.result.Chat = full
	return nil
}

func (p *provisioning) collect(failures []*MemberFailure) {
	for _, f := range failures {
		if f == nil {
			continue
		}
		metrics.MemberSyncFailuresTotal.WithLabelValues(string(f.Step), string(f.Kind)).Inc()
		if f.Kind != KindCredentialMissing {
			log.Warn().Uint64("member", f.UserID).Str("step", string(f.Step)).
				Str("kind", string(f.Kind)).Str("repository", p.repo).
				Msg(f.Message)
		}
		p.result.Failures = append(p.result.Failures, *f)
	}
}

func memberFailure(member models.User, step Step, err error) *MemberFailure {
	return &MemberFailure{UserID: member.ID, Name: member.Name, Step: step, Kind: KindOf(err), Message: err.Error()}
}

// BranchNames derives one branch name per member, in order: the slugged
// display name plus "-branch". Repeats get "-1", "-2", ... appended; the
// first occurrence keeps the bare name.
func BranchNames(members []models.User) []string {
	used := make(map[string]bool, len(members))
	next := make(map[string]int, len(members))
	names := make([]string, len(members))

	for i, m := range members {
		slug := utils.Slugify(m.Name)
		if slug == "" {
			slug = "user-" + strconv.FormatUint(m.ID, 10)
		}
		base := slug + "-branch"
		name := base
		for used[name] {
			next[base]++
			name = base + "-" + strconv.Itoa(next[base])
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// chatMemberIDs is members plus the admin, without duplicates.
func chatMemberIDs(members []models.User, adminID uint64) []uint64 {
	ids := make([]uint64, 0, len(members)+1)
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	return dedupe(append(ids, adminID))
}

func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]bool, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
