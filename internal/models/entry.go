package models

import "time"

// Defaults for omitted style fields (kept in sync with the web client).
const (
	DefaultFontFamily = "Arial"
	DefaultFontSize   = "16px"
	DefaultFontWeight = "normal"
	DefaultFontStyle  = "normal"
	DefaultColor      = "#000000"
)

type Entry struct {
	ID         int64        `json:"id"`
	UserID     int          `json:"user_id"`
	Title      string       `json:"title"`
	Name       string       `json:"name"` // author display name
	Text       string       `json:"text"`
	FontFamily string       `json:"fontFamily"`
	FontSize   string       `json:"fontSize"`
	FontWeight string       `json:"fontWeight"`
	FontStyle  string       `json:"fontStyle"`
	Color      string       `json:"color"`
	Date       time.Time    `json:"date"`
	CreatedAt  time.Time    `json:"created_at"`
	Images     []EntryImage `json:"images"`
}

// EntryImage is one stored file attached to an entry, with its placement on
// the page. Lifecycle is bound to the entry.
type EntryImage struct {
	ID      int64   `json:"id"`
	EntryID int64   `json:"entry_id"`
	URL     string  `json:"url"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// ApplyStyleDefaults fills server defaults for any style field the client
// omitted. Date defaults to now.
func (e *Entry) ApplyStyleDefaults(now time.Time) {
	if e.FontFamily == "" {
		e.FontFamily = DefaultFontFamily
	}
	if e.FontSize == "" {
		e.FontSize = DefaultFontSize
	}
	if e.FontWeight == "" {
		e.FontWeight = DefaultFontWeight
	}
	if e.FontStyle == "" {
		e.FontStyle = DefaultFontStyle
	}
	if e.Color == "" {
		e.Color = DefaultColor
	}
	if e.Date.IsZero() {
		e.Date = now
	}
}
