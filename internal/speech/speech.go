// ABOUTME: Text-to-speech output through an external TTS command
// ABOUTME: Speak starts the command and returns; the process is reaped in the background

package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Placeholders substituted in command arguments.
const (
	VoicePlaceholder = "{voice}"
	TextPlaceholder  = "{text}"
)

// DefaultCommand speaks with espeak-ng.
var DefaultCommand = []string{"espeak-ng", "-v", VoicePlaceholder}

// DefaultVoices maps language codes to voices. Unknown languages use
// FallbackVoice.
var DefaultVoices = map[string]string{
	"es": "es-ES",
	"en": "en-US",
}

// FallbackVoice is used for languages without a configured voice.
const FallbackVoice = "en-US"

// ErrNoCommand is returned when no TTS command is configured.
var ErrNoCommand = errors.New("no speech command configured")

// CommandSpeaker runs a TTS command per utterance.
type CommandSpeaker struct {
	command []string
	voices  map[string]string
	logger  *slog.Logger
}

// NewCommandSpeaker checks that the command exists. voices overrides
// DefaultVoices per language.
func NewCommandSpeaker(command []string, voices map[string]string, logger *slog.Logger) (*CommandSpeaker, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, ErrNoCommand
	}
	if _, err := exec.LookPath(command[0]); err != nil {
		return nil, fmt.Errorf("speech command %q: %w", command[0], err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	merged := make(map[string]string, len(DefaultVoices)+len(voices))
	for k, v := range DefaultVoices {
		merged[k] = v
	}
	for k, v := range voices {
		merged[strings.ToLower(k)] = v
	}

	return &CommandSpeaker{
		command: append([]string(nil), command...),
		voices:  merged,
		logger:  logger.With("component", "speech"),
	}, nil
}

// Voice returns the voice for a language code such as "es" or "es-MX".
func (s *CommandSpeaker) Voice(language string) string {
	lang := strings.ToLower(language)
	if v, ok := s.voices[lang]; ok {
		return v
	}
	if base, _, found := strings.Cut(lang, "-"); found {
		if v, ok := s.voices[base]; ok {
			return v
		}
	}
	return FallbackVoice
}

// Args builds the command line for text. The text is appended as the last
// argument unless the command contains TextPlaceholder.
func (s *CommandSpeaker) Args(text, language string) []string {
	voice := s.Voice(language)
	args := make([]string, 0, len(s.command)+1)
	hasText := false
	for _, a := range s.command {
		if strings.Contains(a, TextPlaceholder) {
			hasText = true
		}
		a = strings.ReplaceAll(a, VoicePlaceholder, voice)
		a = strings.ReplaceAll(a, TextPlaceholder, text)
		args = append(args, a)
	}
	if !hasText {
		args = append(args, text)
	}
	return args
}

// Speak starts the TTS command and returns without waiting for playback.
func (s *CommandSpeaker) Speak(ctx context.Context, text, language string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	args := s.Args(text, language)
	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting speech command: %w", err)
	}

	s.logger.Debug("speaking", "voice", s.Voice(language), "pid", cmd.Process.Pid)
	go func() {
		if err := cmd.Wait(); err != nil {
			s.logger.Warn("speech command failed", "error", err)
		}
	}()
	return nil
}

// Nop discards speech.
type Nop struct{}

func (Nop) Speak(context.Context, string, string) error { return nil }
