// ABOUTME: Remembers recently used sign-in email addresses
// ABOUTME: Stored as JSON in the config directory to prefill login and reset forms

package recent

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/kestreladvisory/site-console/internal/validate"
)

// MaxEmails is the maximum number of addresses to keep
const MaxEmails = 5

// FileName is the file written under the config directory
const FileName = "recent.json"

// Emails manages the list of recently used sign-in addresses
type Emails struct {
	configDir string
	emails    []string
}

type recentData struct {
	Emails []string `json:"emails"`
}

// New creates a new Emails manager with the given config directory
func New(configDir string) *Emails {
	return &Emails{configDir: configDir}
}

func (e *Emails) configFile() string {
	return filepath.Join(e.configDir, FileName)
}

// Load reads the list from disk. Entries that no longer look like an
// email address are dropped.
func (e *Emails) Load() ([]string, error) {
	data, err := os.ReadFile(e.configFile())
	if os.IsNotExist(err) {
		e.emails = []string{}
		return e.emails, nil
	}
	if err != nil {
		return nil, err
	}

	var recent recentData
	if err := json.Unmarshal(data, &recent); err != nil {
		// Invalid JSON, start fresh
		e.emails = []string{}
		return e.emails, nil
	}

	e.emails = make([]string, 0, len(recent.Emails))
	for _, addr := range recent.Emails {
		if validate.IsEmail(addr) {
			e.emails = append(e.emails, addr)
		}
	}
	return e.emails, nil
}

// Save writes the list to disk, trimmed to MaxEmails
func (e *Emails) Save(emails []string) error {
	if err := os.MkdirAll(e.configDir, 0700); err != nil {
		return err
	}

	if len(emails) > MaxEmails {
		emails = emails[:MaxEmails]
	}
	e.emails = emails

	data, err := json.MarshalIndent(recentData{Emails: emails}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(e.configFile(), data, 0600)
}

// Add moves addr to the front of the list. Comparison ignores case.
func (e *Emails) Add(addr string) error {
	addr = strings.TrimSpace(addr)
	if e.emails == nil {
		if _, err := e.Load(); err != nil {
			e.emails = []string{}
		}
	}

	updated := make([]string, 0, len(e.emails)+1)
	updated = append(updated, addr)
	for _, existing := range e.emails {
		if !strings.EqualFold(existing, addr) {
			updated = append(updated, existing)
		}
	}
	return e.Save(updated)
}

// Latest returns the most recent address, or "" when none is stored
func (e *Emails) Latest() string {
	list := e.List()
	if len(list) == 0 {
		return ""
	}
	return list[0]
}

// List returns the current list
func (e *Emails) List() []string {
	if e.emails == nil {
		e.Load()
	}
	return e.emails
}
