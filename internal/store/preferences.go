package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Default display colours.
const (
	DefaultBackgroundColor = "#1e1e1e"
	DefaultScaleBarColor   = "#ffffff"
)

// Preferences are the optional display settings kept alongside
// calibrations.
type Preferences struct {
	BackgroundColor string `json:"backgroundColor"`
	ScaleBarColor   string `json:"scaleBarColor"`
	Notes           string `json:"notes"`
}

// DefaultPreferences returns the settings used when nothing is stored.
func DefaultPreferences() Preferences {
	return Preferences{
		BackgroundColor: DefaultBackgroundColor,
		ScaleBarColor:   DefaultScaleBarColor,
	}
}

// NormalizeColor parses a hex colour ("#abc", "abc", "#aabbcc") and
// returns it as lower-case "#rrggbb".
func NormalizeColor(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("empty color")
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if n := len(s) - 1; n != 3 && n != 6 {
		return "", fmt.Errorf("invalid color %q: want 3 or 6 hex digits", s)
	}
	c, err := colorful.Hex(strings.ToLower(s))
	if err != nil {
		return "", fmt.Errorf("invalid color %q: %w", s, err)
	}
	return c.Hex(), nil
}

// Validate normalizes both colours in place.
func (p *Preferences) Validate() error {
	bg, err := NormalizeColor(p.BackgroundColor)
	if err != nil {
		return fmt.Errorf("backgroundColor: %w", err)
	}
	sb, err := NormalizeColor(p.ScaleBarColor)
	if err != nil {
		return fmt.Errorf("scaleBarColor: %w", err)
	}
	p.BackgroundColor, p.ScaleBarColor = bg, sb
	return nil
}

// LoadPreferences reads preferences from st, filling unset fields with
// defaults.
func LoadPreferences(st Store) (Preferences, error) {
	prefs := DefaultPreferences()
	data, err := st.Get(KeyPreferences)
	if errors.Is(err, ErrNotFound) {
		return prefs, nil
	}
	if err != nil {
		return prefs, err
	}
	if err := json.Unmarshal(data, &prefs); err != nil {
		return DefaultPreferences(), fmt.Errorf("failed to parse preferences: %w", err)
	}
	if prefs.BackgroundColor == "" {
		prefs.BackgroundColor = DefaultBackgroundColor
	}
	if prefs.ScaleBarColor == "" {
		prefs.ScaleBarColor = DefaultScaleBarColor
	}
	return prefs, nil
}

// SavePreferences validates and stores prefs, returning the normalized
// value that was written.
func SavePreferences(st Store, prefs Preferences) (Preferences, error) {
	if err := prefs.Validate(); err != nil {
		return prefs, err
	}
	data, err := json.Marshal(prefs)
	if err != nil {
		return prefs, err
	}
	if err := st.Put(KeyPreferences, data); err != nil {
		return prefs, err
	}
	return prefs, nil
}
