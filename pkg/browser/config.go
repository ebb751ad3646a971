package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Binding maps one record field onto one element.
type Binding struct {
	// Selector locates the element.
	Selector string `yaml:"selector"`

	// Field names the record field supplying the value.
	Field string `yaml:"field"`

	// Default is used when Field is empty or the record has no value for it.
	Default string `yaml:"default"`

	// Action is "input" (default), "select" or "click".
	Action string `yaml:"action"`

	// Optional bindings are skipped when the element is absent.
	Optional bool `yaml:"optional"`
}

// Binding actions.
const (
	ActionInput  = "input"
	ActionSelect = "select"
	ActionClick  = "click"
)

// Actions lists the elements clicked, in order, for each entry-level step.
type Actions struct {
	OpenFreshEntry       []string `yaml:"open_fresh_entry"`
	DuplicateFromCurrent []string `yaml:"duplicate_from_current"`
	Commit               []string `yaml:"commit"`
}

// Login describes the sign-in form. It is skipped when URL is empty.
type Login struct {
	URL              string `yaml:"url"`
	Username         string `yaml:"username"`
	Password         string `yaml:"password"`
	UsernameSelector string `yaml:"username_selector"`
	PasswordSelector string `yaml:"password_selector"`
	SubmitSelector   string `yaml:"submit_selector"`
}

// Config holds browser configuration.
type Config struct {
	// ControlURL attaches to a running Chrome. When empty, Chrome is launched.
	ControlURL string `yaml:"control_url"`
	// Bin is the Chrome binary to launch. Empty uses rod's default lookup.
	Bin      string `yaml:"bin"`
	Headless bool   `yaml:"headless"`

	// EntryURL is the page where entries are created.
	EntryURL string `yaml:"entry_url"`
	Login    Login  `yaml:"login"`

	// Timeout bounds each element lookup and navigation.
	Timeout time.Duration `yaml:"timeout"`
	// OverlayTimeout bounds the wait for the loading overlay to clear.
	OverlayTimeout time.Duration `yaml:"overlay_timeout"`
	// Overlays are the selectors of the blocking loading overlay.
	Overlays []string `yaml:"overlays"`

	Actions Actions   `yaml:"actions"`
	Header  []Binding `yaml:"header"`
	Detail  []Binding `yaml:"detail"`
	Lines   []Binding `yaml:"lines"`
}

// DefaultOverlays are the blockUI overlays shown while the form is busy.
var DefaultOverlays = []string{
	"div.blockUI.blockMsg.blockPage",
	"div.blockUI.blockOverlay",
	"div.oe_blockui_spin_container",
}

// DefaultConfig returns the default browser configuration.
func DefaultConfig() Config {
	return Config{
		Headless:       false,
		Timeout:        30 * time.Second,
		OverlayTimeout: 20 * time.Second,
		Overlays:       append([]string(nil), DefaultOverlays...),
	}
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var result *multierror.Error

	if c.EntryURL == "" {
		result = multierror.Append(result, errors.New("browser: entry_url is required"))
	}
	if c.Timeout <= 0 {
		result = multierror.Append(result, errors.New("browser: timeout must be positive"))
	}
	if c.OverlayTimeout < 0 {
		result = multierror.Append(result, errors.New("browser: overlay_timeout must not be negative"))
	}
	if len(c.Actions.OpenFreshEntry) == 0 {
		result = multierror.Append(result, errors.New("browser: actions.open_fresh_entry is required"))
	}
	if len(c.Actions.DuplicateFromCurrent) == 0 {
		result = multierror.Append(result, errors.New("browser: actions.duplicate_from_current is required"))
	}
	if len(c.Actions.Commit) == 0 {
		result = multierror.Append(result, errors.New("browser: actions.commit is required"))
	}
	if c.Login.URL != "" {
		if c.Login.UsernameSelector == "" || c.Login.PasswordSelector == "" || c.Login.SubmitSelector == "" {
			result = multierror.Append(result, errors.New("browser: login needs username, password and submit selectors"))
		}
	}

	for section, bindings := range map[string][]Binding{"header": c.Header, "detail": c.Detail, "lines": c.Lines} {
		for i, b := range bindings {
			if err := b.validate(); err != nil {
				result = multierror.Append(result, fmt.Errorf("browser: %s[%d]: %w", section, i, err))
			}
		}
	}

	return result.ErrorOrNil()
}

func (b Binding) validate() error {
	if b.Selector == "" {
		return errors.New("selector is required")
	}
	switch b.Action {
	case "", ActionInput, ActionSelect:
		if b.Field == "" && b.Default == "" {
			return errors.New("field or default is required")
		}
	case ActionClick:
	default:
		return fmt.Errorf("unknown action %q", b.Action)
	}
	return nil
}
