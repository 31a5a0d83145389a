// Package fetch drives the headless browser: Google sign-in, dashboard page
// retrieval, and conversion of the rendered page into text lines.
package fetch

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
)

// SessionStore persists browser cookies between runs so the dashboard can be
// fetched without repeating the interactive sign-in.
type SessionStore struct {
	path string
}

// NewSessionStore returns a store backed by the JSON file at path.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// Path returns the location of the session artifact.
func (s *SessionStore) Path() string { return s.path }

// Exists reports whether a session artifact is present.
func (s *SessionStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Discard removes the session artifact. Removing an already-absent artifact
// is not an error.
func (s *SessionStore) Discard() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// sessionCookie is the stored shape of one browser cookie.
type sessionCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"` // seconds since epoch; <=0 means session cookie
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// save writes the browser cookies to the artifact. The file is owner-only:
// it carries live Google session cookies.
func (s *SessionStore) save(cookies []*network.Cookie) error {
	stored := make([]sessionCookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, sessionCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		})
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session cookies: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session artifact %s: %w", s.path, err)
	}
	return nil
}

// load reads the artifact back as cookie parameters ready to hand to the
// browser.
func (s *SessionStore) load() ([]*network.CookieParam, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read session artifact %s: %w", s.path, err)
	}

	var stored []sessionCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode session artifact %s: %w", s.path, err)
	}

	params := make([]*network.CookieParam, 0, len(stored))
	for _, c := range stored {
		param := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: network.CookieSameSite(c.SameSite),
		}
		if c.Expires > 0 {
			expires := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
			param.Expires = &expires
		}
		params = append(params, param)
	}
	return params, nil
}
