package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/devsync/teamchat-api/internal/constants"
	"github.com/sashabaranov/go-openai"
)

var (
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
)

type AIService struct {
	client *openai.Client
}

// SuggestedTask is an unsaved task proposal.
type SuggestedTask struct {
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
}

// NewAIService returns a service with no client when apiKey is empty.
func NewAIService(apiKey string) *AIService {
	if apiKey == "" {
		return &AIService{}
	}
	return &AIService{
		client: openai.NewClient(apiKey),
	}
}

// NewAIServiceWithConfig is used to point the client at another endpoint.
func NewAIServiceWithConfig(cfg openai.ClientConfig) *AIService {
	return &AIService{client: openai.NewClientWithConfig(cfg)}
}

// Enabled reports whether an API key was configured.
func (s *AIService) Enabled() bool {
	return s != nil && s.client != nil
}

// SuggestTasks proposes tasks for a project phase from free text.
func (s *AIService) SuggestTasks(ctx context.Context, phaseName, text string) ([]SuggestedTask, error) {
	if !s.Enabled() {
		return nil, ErrAIServiceNotConfigured
	}

	currentTime := time.Now().Format("2006-01-02 15:04:05")
	prompt := fmt.Sprintf(`You help a software team plan work. Extract concrete tasks for the project phase %q from the text below.

Current time: %s

Text:
%s

Reply with a JSON array only, in this shape:
[
  {
    "description": "what has to be done, one sentence",
    "due_date": "deadline in ISO8601 (for example 2025-10-28T23:59:59Z), or null when none is stated"
  }
]

Rules:
- Return [] when the text contains no tasks
- Convert relative deadlines ("tomorrow", "next week") into absolute timestamps
- Return at most %d tasks
- Do not add any prose around the JSON`, phaseName, currentTime, text, constants.MaxAIGeneratedTasks)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)

	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return parseSuggestions(resp.Choices[0].Message.Content)
}

// parseSuggestions decodes the model's reply, tolerating a fenced code
// block, and drops empty entries.
func parseSuggestions(content string) ([]SuggestedTask, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var raw []SuggestedTask
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	tasks := make([]SuggestedTask, 0, len(raw))
	for _, t := range raw {
		t.Description = strings.TrimSpace(t.Description)
		if t.Description == "" {
			continue
		}
		tasks = append(tasks, t)
		if len(tasks) == constants.MaxAIGeneratedTasks {
			break
		}
	}
	return tasks, nil
}
