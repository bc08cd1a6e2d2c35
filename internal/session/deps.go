// ABOUTME: Collaborator interfaces the session manager consumes
// ABOUTME: Implemented by the backend client, identity provider, speech and clipboard packages

package session

import (
	"context"

	"github.com/yopuedo360/yopuedo-chat/internal/chat"
)

// Backend defines what the session needs from the conversation backend.
type Backend interface {
	ListPartners(ctx context.Context, userID string) ([]chat.Partner, error)
	ListMessages(ctx context.Context, userID, partnerID string) ([]chat.Message, error)
	SendMessage(ctx context.Context, userID, partnerID string, req chat.SendRequest) (*chat.Message, error)

	Translate(ctx context.Context, text, targetLanguage string) (string, error)
	Correct(ctx context.Context, text, targetLanguage string) (*chat.Correction, error)
	Feedback(ctx context.Context, text, topic string) (string, error)

	MarkRead(ctx context.Context, userID, partnerID string) error
	ArchivePartner(ctx context.Context, userID, partnerID string) error
}

// IdentitySource supplies the current user once authentication has resolved.
type IdentitySource interface {
	Current() (chat.Profile, bool)
}

// Speaker renders text to audio. Implementations should not block on playback.
type Speaker interface {
	Speak(ctx context.Context, text, language string) error
}

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	Copy(text string) error
}

type nopSpeaker struct{}

func (nopSpeaker) Speak(context.Context, string, string) error { return nil }

type nopClipboard struct{}

func (nopClipboard) Copy(string) error { return nil }
