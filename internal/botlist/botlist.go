// Package botlist pushes bot metadata to the bot-directory websites
// (discordbotlist.com and top.gg). Pushes are best-effort: a directory being
// down never affects the bot.
package botlist

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	discordbotlistURL = "https://discordbotlist.com/api/v1/bots/chadcounting"
	topggURL          = "https://top.gg/api/bots/1066081427935993886"
)

// Client is the struct that provides interactivity with the directory APIs.
type Client struct {
	httpClient *http.Client

	discordbotlistToken string
	topggToken          string

	l *zap.SugaredLogger
}

type ClientConfig struct {
	DiscordbotlistToken string
	TopGGToken          string
}

// NewClient produces a new client with the given config. Tokens left empty
// disable that directory.
func NewClient(c ClientConfig, l *zap.SugaredLogger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		discordbotlistToken: c.DiscordbotlistToken,
		topggToken:          c.TopGGToken,
		l:                   l,
	}
}

// A Command is the name/description pair the directories list.
type Command struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// PushGuildCount publishes the current guild count to every configured
// directory.
func (c *Client) PushGuildCount(ctx context.Context, guilds int) {
	if c.discordbotlistToken != "" {
		c.post(ctx, discordbotlistURL+"/stats", "Bot "+c.discordbotlistToken, map[string]int{"guilds": guilds})
	}
	if c.topggToken != "" {
		c.post(ctx, topggURL+"/stats", c.topggToken, map[string]int{"server_count": guilds})
	}
}

// PushCommands publishes the slash-command list to discordbotlist.
func (c *Client) PushCommands(ctx context.Context, commands []Command) {
	if c.discordbotlistToken == "" {
		return
	}
	c.post(ctx, discordbotlistURL+"/commands", "Bot "+c.discordbotlistToken, commands)
}

func (c *Client) post(ctx context.Context, url, authorization string, payload any) {
	byts, err := json.Marshal(payload)
	if err != nil {
		c.l.Errorw("error marshalling directory payload", "url", url, "err", err)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(byts))
	if err != nil {
		c.l.Errorw("error creating directory request", "url", url, "err", err)
		return
	}
	req.Header.Add("Authorization", authorization)
	req.Header.Add("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		c.l.Errorw("error calling directory api", "url", url, "err", err)
		return
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		er := map[string]any{}
		if err := json.NewDecoder(res.Body).Decode(&er); err != nil {
			c.l.Errorw("received error response from directory api", "url", url, "status_code", res.StatusCode)
			return
		}
		c.l.Errorw("received error response from directory api", "url", url, "status_code", res.StatusCode, "err", er)
		return
	}
	c.l.Infow("pushed to directory api", "url", url, "status_code", res.StatusCode)
}
