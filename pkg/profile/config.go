package profile

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigVersion = 1
	DefaultConfigRoot    = "/etc/duply"
	DefaultKeysDir       = "/etc/duply/keys"
)

// Settings holds the host-level paths shared by every profile.
type Settings struct {
	// ConfigRoot is the directory profiles are provisioned under.
	ConfigRoot string `yaml:"config_root"`
	// KeysDir is the directory holding GPG key material that key links
	// point at.
	KeysDir string `yaml:"keys_dir"`
}

// Config is a parsed duplyconf.yaml: global settings plus the declared
// profiles in deterministic (name-sorted) order.
type Config struct {
	Version  int
	Settings Settings
	Entries  []Entry
}

// Entry is one declared profile prior to validation. Keeping entries raw
// until Build lets one invalid profile fail on its own without blocking
// the rest of the document.
type Entry struct {
	Name string
	raw  rawSpec
}

// Build validates the entry and returns the typed spec. The error, if any,
// is a *ValidationError naming the profile and the first offending field.
func (e Entry) Build() (*Spec, error) {
	return buildSpec(e.Name, e.raw)
}

// document is the on-disk YAML shape of duplyconf.yaml.
type document struct {
	Version  int                `yaml:"version"`
	Settings Settings           `yaml:"settings"`
	Profiles map[string]rawSpec `yaml:"profiles"`
}

// ParseConfig decodes a duplyconf.yaml document and normalizes settings.
// Profile validation is deferred to Entry.Build.
func ParseConfig(data []byte) (*Config, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	normalizeDocument(&doc)

	cfg := &Config{Version: doc.Version, Settings: doc.Settings}

	names := make([]string, 0, len(doc.Profiles))
	for name := range doc.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("profiles must have a non-empty name")
		}
		cfg.Entries = append(cfg.Entries, Entry{Name: name, raw: doc.Profiles[name]})
	}
	return cfg, nil
}

// Entry returns the declared profile with the given name, if any.
func (c *Config) Entry(name string) (Entry, bool) {
	for _, e := range c.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

func normalizeDocument(doc *document) {
	if doc.Version == 0 {
		doc.Version = DefaultConfigVersion
	}
	if strings.TrimSpace(doc.Settings.ConfigRoot) == "" {
		doc.Settings.ConfigRoot = DefaultConfigRoot
	}
	if strings.TrimSpace(doc.Settings.KeysDir) == "" {
		doc.Settings.KeysDir = DefaultKeysDir
	}
}

// IsRemoteLocation reports whether value names an http(s) URL rather than a
// local path.
func IsRemoteLocation(value string) bool {
	parsed, err := url.Parse(strings.TrimSpace(value))
	if err != nil {
		return false
	}
	return parsed.Scheme == "http" || parsed.Scheme == "https"
}
