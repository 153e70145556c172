// Package normalize maps raw platform payloads onto the canonical
// domain.Message record. It is a pure structural translation boundary: no
// I/O, no scoring, no persistence. Platform-specific shapes must never leak
// past this package; downstream code only ever sees domain.Message.
//
// Each platform has its own mapping rules (Telegram carries chat.title where
// Discord has channel_name, Telegram may omit usernames, timestamps differ in
// encoding). Required fields are the native message id, the author identity,
// the content, and the send timestamp; anything optional that the payload
// omits is left empty rather than defaulted to placeholder text.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
)

// ErrMalformedPayload indicates a raw payload missing required fields or
// carrying fields of the wrong shape. It is a permanent rejection: the
// ingestion pipeline logs and drops such payloads without side effects.
var ErrMalformedPayload = errors.New("malformed payload")

// malformed wraps ErrMalformedPayload with field-level detail so logs can say
// what was wrong while callers still match on the sentinel.
func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedPayload, fmt.Sprintf(format, args...))
}

// Message normalizes a platform-tagged raw JSON payload into a canonical
// Message. The returned record has Sentiment/SentimentScore unset; scoring is
// the pipeline's job. Unknown platforms and undecodable or incomplete
// payloads yield ErrMalformedPayload.
func Message(platform domain.Platform, raw []byte) (*domain.Message, error) {
	switch platform {
	case domain.PlatformDiscord:
		return discordMessage(raw)
	case domain.PlatformTelegram:
		return telegramMessage(raw)
	default:
		return nil, malformed("unsupported platform %q", platform)
	}
}

// discordPayload mirrors the subset of a Discord message event the
// normalizer consumes.
type discordPayload struct {
	ID          string `json:"id"`
	ChannelID   string `json:"channel_id"`
	ChannelName string `json:"channel_name"`
	Author      struct {
		ID         string `json:"id"`
		Username   string `json:"username"`
		GlobalName string `json:"global_name"`
	} `json:"author"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

func discordMessage(raw []byte) (*domain.Message, error) {
	var p discordPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, malformed("discord: %v", err)
	}
	if strings.TrimSpace(p.ID) == "" {
		return nil, malformed("discord: missing message id")
	}
	if strings.TrimSpace(p.Author.ID) == "" || strings.TrimSpace(p.Author.Username) == "" {
		return nil, malformed("discord: missing author")
	}
	if strings.TrimSpace(p.Content) == "" {
		return nil, malformed("discord: missing content")
	}
	ts, err := time.Parse(time.RFC3339, p.Timestamp)
	if err != nil {
		return nil, malformed("discord: bad timestamp %q", p.Timestamp)
	}

	return &domain.Message{
		ID:          "discord:" + p.ID,
		Platform:    domain.PlatformDiscord,
		ChannelID:   p.ChannelID,
		ChannelName: p.ChannelName,
		UserID:      p.Author.ID,
		Username:    p.Author.Username,
		FirstName:   p.Author.GlobalName,
		Content:     p.Content,
		CreatedAt:   ts.UTC(),
	}, nil
}

// telegramPayload mirrors the subset of a Telegram Bot API message the
// normalizer consumes. message_id is only unique per chat, so the canonical
// id includes the chat id.
type telegramPayload struct {
	MessageID int64 `json:"message_id"`
	Chat      struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
	} `json:"chat"`
	From struct {
		ID        int64  `json:"id"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"from"`
	Text string `json:"text"`
	Date int64  `json:"date"`
}

func telegramMessage(raw []byte) (*domain.Message, error) {
	var p telegramPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, malformed("telegram: %v", err)
	}
	if p.MessageID == 0 {
		return nil, malformed("telegram: missing message_id")
	}
	if p.From.ID == 0 {
		return nil, malformed("telegram: missing author")
	}
	if strings.TrimSpace(p.Text) == "" {
		return nil, malformed("telegram: missing text")
	}
	if p.Date <= 0 {
		return nil, malformed("telegram: missing date")
	}

	// Telegram users may have no @username; the first name is the only
	// guaranteed display handle.
	username := p.From.Username
	if username == "" {
		username = strings.TrimSpace(p.From.FirstName)
	}
	if username == "" {
		return nil, malformed("telegram: author has no username or first name")
	}

	chatID := strconv.FormatInt(p.Chat.ID, 10)
	return &domain.Message{
		ID:          fmt.Sprintf("telegram:%d:%d", p.Chat.ID, p.MessageID),
		Platform:    domain.PlatformTelegram,
		ChannelID:   chatID,
		ChannelName: p.Chat.Title,
		UserID:      strconv.FormatInt(p.From.ID, 10),
		Username:    username,
		FirstName:   p.From.FirstName,
		LastName:    p.From.LastName,
		Content:     p.Text,
		CreatedAt:   time.Unix(p.Date, 0).UTC(),
	}, nil
}
