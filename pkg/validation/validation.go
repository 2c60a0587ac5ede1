package validation

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"relaycast/pkg/utils"
)

const (
	MaxStreamIDLength    = 100
	MaxTitleLength       = 200
	MaxDisplayNameLength = 64
	MaxAvatarURLLength   = 512
)

// ValidateStreamID checks a caller-supplied stream id after trimming.
func ValidateStreamID(id string) error {
	if utils.IsEmpty(id) {
		return fmt.Errorf("streamId must not be empty")
	}
	if utf8.RuneCountInString(strings.TrimSpace(id)) > MaxStreamIDLength {
		return fmt.Errorf("streamId must be at most %d characters", MaxStreamIDLength)
	}
	return nil
}

// ValidateTitle checks an optional stream title. Blank is allowed; it
// falls back to the stream id.
func ValidateTitle(title string) error {
	if utf8.RuneCountInString(strings.TrimSpace(title)) > MaxTitleLength {
		return fmt.Errorf("title must be at most %d characters", MaxTitleLength)
	}
	return nil
}

// ValidateAvatarURL checks that an avatar URL, when present, is an
// absolute http(s) URL of reasonable length.
func ValidateAvatarURL(raw string) error {
	if raw == "" {
		return nil
	}
	if len(raw) > MaxAvatarURLLength {
		return fmt.Errorf("avatarUrl must be at most %d bytes", MaxAvatarURLLength)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("avatarUrl is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("avatarUrl must use http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("avatarUrl must be absolute")
	}
	return nil
}
