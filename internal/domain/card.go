package domain

import "strings"

// Card dimension limits, in workspace units.
const (
	MinCardWidth  = 150.0
	MinCardHeight = 80.0

	DefaultCardWidth  = 200.0
	DefaultCardHeight = 120.0
)

// CardSize holds a card's width and height in workspace units.
type CardSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultCardSize returns the size new cards are created with.
func DefaultCardSize() CardSize {
	return CardSize{Width: DefaultCardWidth, Height: DefaultCardHeight}
}

// Clamped bounds each dimension below by its minimum.
func (s CardSize) Clamped() CardSize {
	if s.Width < MinCardWidth {
		s.Width = MinCardWidth
	}
	if s.Height < MinCardHeight {
		s.Height = MinCardHeight
	}
	return s
}

// IsZero reports whether the size is entirely unset.
func (s CardSize) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

// Card is a movable, resizable free-form text note. Position is the top-left
// corner in workspace coordinates.
type Card struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Position Point    `json:"position"`
	Size     CardSize `json:"size"`
}

// NewCard constructs a card centered on the given workspace point with the
// default size.
func NewCard(id, text string, center Point) (Card, error) {
	if strings.TrimSpace(id) == "" {
		return Card{}, ErrInvalidID
	}
	size := DefaultCardSize()
	return Card{
		ID:   id,
		Text: text,
		Position: Point{
			X: center.X - size.Width/2,
			Y: center.Y - size.Height/2,
		},
		Size: size,
	}, nil
}

// Normalized repairs a card read from an untrusted document.
func (c Card) Normalized() Card {
	if c.Size.IsZero() {
		c.Size = DefaultCardSize()
	}
	c.Size = c.Size.Clamped()
	return c
}
