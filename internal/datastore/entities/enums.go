package entities

import (
	"encoding/json"
	"fmt"
)

// Commenting controls who may comment on a commentable entity. Stored
// as an integer, serialized on the wire as a fixed string.
type Commenting int

const (
	CommentingNone Commenting = iota
	CommentingRegistered
	CommentingOpen
)

// commentingToWire and commentingFromWire form the explicit
// bidirectional codec between storage and wire representations.
var commentingToWire = map[Commenting]string{
	CommentingNone:       "none",
	CommentingRegistered: "registered",
	CommentingOpen:       "open",
}

var commentingFromWire = map[string]Commenting{
	"none":       CommentingNone,
	"registered": CommentingRegistered,
	"open":       CommentingOpen,
}

// Wire returns the wire string for the enum value.
func (c Commenting) Wire() (string, error) {
	s, ok := commentingToWire[c]
	if !ok {
		return "", fmt.Errorf("unknown commenting value %d", int(c))
	}
	return s, nil
}

func (c Commenting) String() string {
	if s, ok := commentingToWire[c]; ok {
		return s
	}
	return fmt.Sprintf("commenting(%d)", int(c))
}

// ParseCommenting converts a wire string back to the enum.
func ParseCommenting(s string) (Commenting, error) {
	c, ok := commentingFromWire[s]
	if !ok {
		return CommentingNone, fmt.Errorf("unknown commenting value %q", s)
	}
	return c, nil
}

// MarshalJSON serializes the wire string.
func (c Commenting) MarshalJSON() ([]byte, error) {
	s, err := c.Wire()
	if err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

// UnmarshalJSON accepts the wire string.
func (c *Commenting) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCommenting(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// SectionType classifies a section within a hearing. Stored and
// serialized as its string value.
type SectionType string

const (
	SectionTypeIntroduction SectionType = "introduction"
	SectionTypePlain        SectionType = "plain"
	SectionTypeScenario     SectionType = "scenario"
	SectionTypeArea         SectionType = "area"
)

// Valid reports whether t is one of the known section types.
func (t SectionType) Valid() bool {
	switch t {
	case SectionTypeIntroduction, SectionTypePlain, SectionTypeScenario, SectionTypeArea:
		return true
	default:
		return false
	}
}
