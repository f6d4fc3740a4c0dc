// Package slack reads the workspace member list and posts messages to channels.
package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/danielolaszy/duebot/internal/logging"
	"github.com/danielolaszy/duebot/pkg/models"
	"github.com/slack-go/slack"
)

// Client wraps the Slack Web API client with the bot's posting identity.
type Client struct {
	api       *slack.Client
	username  string
	iconEmoji string
}

// Options configures a Client.
type Options struct {
	Token string

	// APIURL overrides the Web API endpoint; empty means slack.com
	APIURL string

	Username  string
	IconEmoji string
}

// NewClient creates a Slack client. The token is required.
func NewClient(opts Options) (*Client, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("slack token not found in configuration")
	}

	var apiOpts []slack.Option
	if opts.APIURL != "" {
		url := opts.APIURL
		if !strings.HasSuffix(url, "/") {
			url += "/"
		}
		apiOpts = append(apiOpts, slack.OptionAPIURL(url))
	}

	logging.Debug("slack configuration",
		"api_url", opts.APIURL,
		"username", opts.Username,
		"token", logging.MaskSensitive(opts.Token))

	return &Client{
		api:       slack.New(opts.Token, apiOpts...),
		username:  opts.Username,
		iconEmoji: opts.IconEmoji,
	}, nil
}

// ListMembers returns the workspace members that have a full name.
// The full name is taken from the profile, falling back to the account's real name.
func (c *Client) ListMembers(ctx context.Context) ([]models.Member, error) {
	users, err := c.api.GetUsersContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list slack users: %w", err)
	}

	members := make([]models.Member, 0, len(users))
	for _, u := range users {
		if u.Deleted {
			continue
		}
		name := u.Profile.RealName
		if name == "" {
			name = u.RealName
		}
		if name == "" {
			continue
		}
		members = append(members, models.Member{DisplayName: name, Handle: u.Name})
	}

	logging.Debug("fetched slack members",
		"users", len(users),
		"members", len(members))

	return members, nil
}

// PostMessage posts body to channel with mentions enabled and returns the message timestamp.
func (c *Client) PostMessage(ctx context.Context, channel, title, body string) (string, error) {
	params := slack.PostMessageParameters{
		Username:  c.username,
		IconEmoji: c.iconEmoji,
		LinkNames: 1,
		Markdown:  true,
	}

	_, ts, err := c.api.PostMessageContext(ctx, channel,
		slack.MsgOptionText(body, false),
		slack.MsgOptionPostMessageParameters(params),
	)
	if err != nil {
		return "", fmt.Errorf("failed to post %q to %s: %w", title, channel, err)
	}
	return ts, nil
}
