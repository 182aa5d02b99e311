package feed

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/lysyi3m/appcast-comb/app/errors"
)

const (
	SparkleNamespace = "http://www.andymatuschak.org/xml-namespaces/sparkle"

	// RFC 1123 with numeric zone, the pubDate layout Sparkle's generate_appcast writes
	DefaultDateLayout = "Mon, 02 Jan 2006 15:04:05 -0700"
)

// Profile names the elements the merge engine looks at. Everything else in
// an item is opaque.
type Profile struct {
	Namespace      string `yaml:"namespace"`
	ChannelElement string `yaml:"channel_element"`
	NotesElement   string `yaml:"notes_element"`
	DateElement    string `yaml:"date_element"`
	DateNamespace  string `yaml:"date_namespace"`
	DateLayout     string `yaml:"date_layout"`
	Indent         string `yaml:"indent"`
}

func DefaultProfile() Profile {
	return Profile{
		Namespace:      SparkleNamespace,
		ChannelElement: "channel",
		NotesElement:   "releaseNotesLink",
		DateElement:    "pubDate",
		DateNamespace:  "",
		DateLayout:     DefaultDateLayout,
		Indent:         "    ",
	}
}

// LoadProfile reads a YAML profile and fills unset fields from DefaultProfile.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, apperrors.NewConfigurationError("profile", fmt.Sprintf("failed to read %s", path), err)
	}

	return ParseProfile(data)
}

func ParseProfile(data []byte) (Profile, error) {
	var raw Profile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Profile{}, apperrors.NewConfigurationError("profile", "failed to parse YAML", err)
	}

	profile := DefaultProfile()
	profile.merge(raw)

	if err := profile.Validate(); err != nil {
		return Profile{}, err
	}

	slog.Debug("Profile loaded",
		"namespace", profile.Namespace,
		"channel_element", profile.ChannelElement,
		"notes_element", profile.NotesElement,
		"date_element", profile.DateElement)

	return profile, nil
}

func (p *Profile) merge(o Profile) {
	if o.Namespace != "" {
		p.Namespace = o.Namespace
	}
	if o.ChannelElement != "" {
		p.ChannelElement = o.ChannelElement
	}
	if o.NotesElement != "" {
		p.NotesElement = o.NotesElement
	}
	if o.DateElement != "" {
		p.DateElement = o.DateElement
	}
	if o.DateNamespace != "" {
		p.DateNamespace = o.DateNamespace
	}
	if o.DateLayout != "" {
		p.DateLayout = o.DateLayout
	}
	if o.Indent != "" {
		p.Indent = o.Indent
	}
}

func (p Profile) Validate() error {
	if p.Namespace == "" {
		return apperrors.NewConfigurationError("namespace", "namespace URI is required", nil)
	}

	for field, name := range map[string]string{
		"channel_element": p.ChannelElement,
		"notes_element":   p.NotesElement,
		"date_element":    p.DateElement,
	} {
		if name == "" || strings.ContainsAny(name, ": \t\n<>") {
			return apperrors.NewConfigurationError(field, fmt.Sprintf("invalid element name %q", name), nil)
		}
	}

	if strings.Trim(p.Indent, " \t") != "" {
		return apperrors.NewConfigurationError("indent", "indent may only contain spaces and tabs", nil)
	}

	// A layout that cannot format and re-read a fixed instant would reject every date.
	ref := time.Date(2024, 1, 10, 15, 4, 5, 0, time.UTC)
	if _, err := time.Parse(p.DateLayout, ref.Format(p.DateLayout)); err != nil {
		return apperrors.NewConfigurationError("date_layout", fmt.Sprintf("layout %q does not round-trip", p.DateLayout), err)
	}

	return nil
}
