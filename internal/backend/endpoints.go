// ABOUTME: Typed wrappers for each backend endpoint
// ABOUTME: Client satisfies the session Backend interface through these methods

package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/yopuedo360/yopuedo-chat/internal/chat"
)

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, username, password string) (*chat.TokenPair, error) {
	var pair chat.TokenPair
	req := chat.LoginRequest{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, req, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// Refresh exchanges a refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	var pair chat.TokenPair
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", nil, chat.RefreshRequest{Refresh: refreshToken}, &pair); err != nil {
		return "", err
	}
	return pair.Access, nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*chat.User, error) {
	var u chat.User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListPartners returns the user's conversation partners.
func (c *Client) ListPartners(ctx context.Context, userID string) ([]chat.Partner, error) {
	var partners []chat.Partner
	if err := c.do(ctx, http.MethodGet, userPath(userID, "ai-friends"), nil, nil, &partners); err != nil {
		return nil, err
	}
	return partners, nil
}

// ArchivePartner removes a partner from the user's roster.
func (c *Client) ArchivePartner(ctx context.Context, userID, partnerID string) error {
	return c.do(ctx, http.MethodDelete, userPath(userID, "ai-friends", url.PathEscape(partnerID)), nil, nil, nil)
}

// ListMessages returns the conversation history, oldest first.
func (c *Client) ListMessages(ctx context.Context, userID, partnerID string) ([]chat.Message, error) {
	var q url.Values
	if c.historyLimit > 0 {
		q = url.Values{"limit": {strconv.Itoa(c.historyLimit)}}
	}
	var msgs []chat.Message
	if err := c.do(ctx, http.MethodGet, userPath(userID, "ai-friends", url.PathEscape(partnerID), "messages"), q, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SendMessage posts the user's message and returns the partner's reply.
func (c *Client) SendMessage(ctx context.Context, userID, partnerID string, req chat.SendRequest) (*chat.Message, error) {
	var reply chat.Message
	if err := c.do(ctx, http.MethodPost, userPath(userID, "ai-friends", url.PathEscape(partnerID), "messages"), nil, req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// MarkRead marks the conversation with partnerID as read.
func (c *Client) MarkRead(ctx context.Context, userID, partnerID string) error {
	return c.do(ctx, http.MethodPost, userPath(userID, "conversations", url.PathEscape(partnerID), "read"), nil, nil, nil)
}

// Translate translates text into targetLanguage.
func (c *Client) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	var resp chat.TranslateResponse
	req := chat.TranslateRequest{Text: text, TargetLanguage: targetLanguage}
	if err := c.do(ctx, http.MethodPost, "/translate", nil, req, &resp); err != nil {
		return "", err
	}
	return resp.Translation, nil
}

// Correct returns a grammar correction of text.
func (c *Client) Correct(ctx context.Context, text, targetLanguage string) (*chat.Correction, error) {
	var corr chat.Correction
	req := chat.CorrectRequest{Text: text, TargetLanguage: targetLanguage}
	if err := c.do(ctx, http.MethodPost, "/correct", nil, req, &corr); err != nil {
		return nil, err
	}
	return &corr, nil
}

// Feedback returns qualitative feedback on text given a context such as the
// partner's role.
func (c *Client) Feedback(ctx context.Context, text, topic string) (string, error) {
	var resp chat.FeedbackResponse
	req := chat.FeedbackRequest{Text: text, Context: topic}
	if err := c.do(ctx, http.MethodPost, "/feedback", nil, req, &resp); err != nil {
		return "", err
	}
	return resp.Feedback, nil
}
