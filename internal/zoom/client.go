// Package zoom creates meetings through Zoom's server-to-server OAuth app.
package zoom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const scheduledMeeting = 2

type Config struct {
	AccountID    string
	ClientID     string
	ClientSecret string
	APIURL       string
	TokenURL     string
}

type Meeting struct {
	ID       string `json:"meeting_id"`
	JoinURL  string `json:"join_url"`
	Password string `json:"password,omitempty"`
}

// Client is safe for concurrent use; the access token is cached and
// refreshed by the oauth2 token source.
type Client struct {
	apiURL string
	http   *http.Client
}

// New builds a client. base is the transport used for both the token and
// API calls; nil means a 15s-timeout default.
func New(cfg Config, base *http.Client) *Client {
	if base == nil {
		base = &http.Client{Timeout: 15 * time.Second}
	}
	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
		EndpointParams: url.Values{
			"grant_type": {"account_credentials"},
			"account_id": {cfg.AccountID},
		},
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	return &Client{
		apiURL: strings.TrimSuffix(cfg.APIURL, "/"),
		http:   creds.Client(ctx),
	}
}

type meetingSettings struct {
	HostVideo        bool `json:"host_video"`
	ParticipantVideo bool `json:"participant_video"`
	JoinBeforeHost   bool `json:"join_before_host"`
}

type createMeetingRequest struct {
	Topic     string          `json:"topic"`
	Type      int             `json:"type"`
	StartTime *time.Time      `json:"start_time,omitempty"`
	Duration  int             `json:"duration"`
	Settings  meetingSettings `json:"settings"`
}

type createMeetingResponse struct {
	ID       json.Number `json:"id"`
	JoinURL  string      `json:"join_url"`
	Password string      `json:"password"`
}

// CreateMeeting schedules a meeting owned by the app's account user.
func (c *Client) CreateMeeting(ctx context.Context, topic string, duration time.Duration) (*Meeting, error) {
	body, err := json.Marshal(createMeetingRequest{
		Topic:    topic,
		Type:     scheduledMeeting,
		Duration: int(duration / time.Minute),
		Settings: meetingSettings{HostVideo: true, ParticipantVideo: true, JoinBeforeHost: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode meeting request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/users/me/meetings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build meeting request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to create meeting: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("zoom returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out createMeetingResponse
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode meeting response: %w", err)
	}
	return &Meeting{ID: out.ID.String(), JoinURL: out.JoinURL, Password: out.Password}, nil
}
