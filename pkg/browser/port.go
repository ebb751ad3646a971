package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/hashicorp/go-multierror"

	"github.com/jdziat/entrybatch/pkg/core"
	"github.com/jdziat/entrybatch/pkg/retry"
)

// ErrOverlayBlocking is returned when the loading overlay outlives
// Config.OverlayTimeout. It is always wrapped as transient.
var ErrOverlayBlocking = errors.New("entrybatch: loading overlay still visible")

// ErrValueMismatch is returned when an input does not hold the value typed
// into it. It is always wrapped as transient.
var ErrValueMismatch = errors.New("entrybatch: input value not accepted")

// Port is a rod-backed core.ActionPort. It owns one page and is not safe for
// concurrent use, matching the exclusive-session contract of ActionPort.
type Port struct {
	cfg      Config
	logger   *slog.Logger
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page

	closeOnce sync.Once
	closeErr  error
}

var _ core.ActionPort = (*Port)(nil)

// Connect launches or attaches to Chrome, signs in when a login URL is
// configured, and opens the entry page.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*Port, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Port{cfg: cfg, logger: logger}

	controlURL := cfg.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(cfg.Headless)
		if cfg.Bin != "" {
			l = l.Bin(cfg.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		p.launcher = l
		controlURL = u
	}

	p.browser = rod.New().ControlURL(controlURL)
	if err := p.browser.Connect(); err != nil {
		p.Close()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	page, err := p.browser.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	p.page = page

	if cfg.Login.URL != "" {
		if err := p.login(ctx); err != nil {
			p.Close()
			return nil, err
		}
	}

	if err := p.navigate(ctx, cfg.EntryURL); err != nil {
		p.Close()
		return nil, err
	}

	logger.Info("browser session ready", "entry_url", cfg.EntryURL, "attached", cfg.ControlURL != "")
	return p, nil
}

// OpenFreshEntry loads the entry page and clicks the configured
// open_fresh_entry sequence.
func (p *Port) OpenFreshEntry(ctx context.Context) error {
	if err := p.navigate(ctx, p.cfg.EntryURL); err != nil {
		return classify(err)
	}
	return classify(p.clickAll(ctx, p.cfg.Actions.OpenFreshEntry))
}

// DuplicateFromCurrent clicks the configured duplicate_from_current sequence.
func (p *Port) DuplicateFromCurrent(ctx context.Context) error {
	return classify(p.clickAll(ctx, p.cfg.Actions.DuplicateFromCurrent))
}

// FillHeader applies the header bindings.
func (p *Port) FillHeader(ctx context.Context, rec *core.Record) error {
	return classify(p.apply(ctx, p.cfg.Header, rec))
}

// FillDetail applies the detail bindings.
func (p *Port) FillDetail(ctx context.Context, rec *core.Record) error {
	return classify(p.apply(ctx, p.cfg.Detail, rec))
}

// FillLines applies the line bindings.
func (p *Port) FillLines(ctx context.Context, rec *core.Record) error {
	return classify(p.apply(ctx, p.cfg.Lines, rec))
}

// Commit clicks the configured commit sequence and waits for the form to
// settle.
func (p *Port) Commit(ctx context.Context) error {
	if err := p.clickAll(ctx, p.cfg.Actions.Commit); err != nil {
		return classify(err)
	}
	return classify(p.waitOverlay(ctx))
}

// RecoverSession reloads the current page and waits for the overlay to
// clear.
func (p *Port) RecoverSession(ctx context.Context) error {
	page, cancel := p.scoped(ctx)
	defer cancel()

	if err := page.Reload(); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait load: %w", err)
	}
	return p.waitOverlay(ctx)
}

// Close releases the page and the browser, and kills Chrome if this port
// launched it.
func (p *Port) Close() error {
	p.closeOnce.Do(func() {
		var result *multierror.Error
		if p.page != nil {
			if err := p.page.Close(); err != nil {
				result = multierror.Append(result, fmt.Errorf("close page: %w", err))
			}
		}
		if p.browser != nil && p.launcher != nil {
			if err := p.browser.Close(); err != nil {
				result = multierror.Append(result, fmt.Errorf("close browser: %w", err))
			}
		}
		if p.launcher != nil {
			p.launcher.Kill()
			p.launcher.Cleanup()
		}
		p.closeErr = result.ErrorOrNil()
	})
	return p.closeErr
}

func (p *Port) login(ctx context.Context) error {
	l := p.cfg.Login
	if err := p.navigate(ctx, l.URL); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := p.fill(ctx, l.UsernameSelector, l.Username); err != nil {
		return fmt.Errorf("login username: %w", err)
	}
	if err := p.fill(ctx, l.PasswordSelector, l.Password); err != nil {
		return fmt.Errorf("login password: %w", err)
	}
	if err := p.click(ctx, l.SubmitSelector); err != nil {
		return fmt.Errorf("login submit: %w", err)
	}

	page, cancel := p.scoped(ctx)
	defer cancel()
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	p.logger.Info("signed in", "url", l.URL, "username", l.Username)
	return nil
}

func (p *Port) navigate(ctx context.Context, url string) error {
	page, cancel := p.scoped(ctx)
	defer cancel()

	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", url, err)
	}
	return p.waitOverlay(ctx)
}

func (p *Port) apply(ctx context.Context, bindings []Binding, rec *core.Record) error {
	for _, b := range bindings {
		var err error
		switch b.Action {
		case ActionClick:
			err = p.click(ctx, b.Selector)
		case ActionSelect:
			err = p.choose(ctx, b.Selector, b.value(rec))
		default:
			err = p.fill(ctx, b.Selector, b.value(rec))
		}
		if err != nil {
			if b.Optional && isNotFound(err) {
				p.logger.Debug("optional element absent", "selector", b.Selector)
				continue
			}
			return fmt.Errorf("%s: %w", b.Selector, err)
		}
	}
	return nil
}

func (p *Port) clickAll(ctx context.Context, selectors []string) error {
	for _, sel := range selectors {
		if err := p.click(ctx, sel); err != nil {
			return fmt.Errorf("%s: %w", sel, err)
		}
	}
	return nil
}

func (p *Port) click(ctx context.Context, selector string) error {
	if err := p.waitOverlay(ctx); err != nil {
		return err
	}
	el, cancel, err := p.element(ctx, selector)
	if err != nil {
		return err
	}
	defer cancel()

	if err := el.ScrollIntoView(); err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// fill clicks the input, replaces its content, tabs out so change handlers
// fire, and checks the value stuck.
func (p *Port) fill(ctx context.Context, selector, value string) error {
	if err := p.waitOverlay(ctx); err != nil {
		return err
	}
	el, cancel, err := p.element(ctx, selector)
	if err != nil {
		return err
	}
	defer cancel()

	if err := el.ScrollIntoView(); err != nil {
		return err
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return err
	}
	if err := el.Input(value); err != nil {
		return err
	}
	if err := el.Type(input.Tab); err != nil {
		return err
	}

	res, err := el.Eval(`() => this.value`)
	if err != nil {
		return err
	}
	if got := res.Value.String(); !valueAccepted(got, value) {
		return fmt.Errorf("%w: want %q, got %q", ErrValueMismatch, value, got)
	}
	return nil
}

func (p *Port) choose(ctx context.Context, selector, value string) error {
	if err := p.waitOverlay(ctx); err != nil {
		return err
	}
	el, cancel, err := p.element(ctx, selector)
	if err != nil {
		return err
	}
	defer cancel()
	return el.Select([]string{value}, true, rod.SelectorTypeText)
}

func (p *Port) element(ctx context.Context, selector string) (*rod.Element, context.CancelFunc, error) {
	page, cancel := p.scoped(ctx)
	var (
		el  *rod.Element
		err error
	)
	if isXPath(selector) {
		el, err = page.ElementX(selector)
	} else {
		el, err = page.Element(selector)
	}
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return el, cancel, nil
}

// waitOverlay blocks until none of the configured overlays is visible.
func (p *Port) waitOverlay(ctx context.Context) error {
	if p.cfg.OverlayTimeout <= 0 || len(p.cfg.Overlays) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.OverlayTimeout)
	defer cancel()
	page := p.page.Context(ctx)

	for _, sel := range p.cfg.Overlays {
		var (
			has bool
			el  *rod.Element
			err error
		)
		if isXPath(sel) {
			has, el, err = page.HasX(sel)
		} else {
			has, el, err = page.Has(sel)
		}
		if err != nil {
			return overlayError(sel, err)
		}
		if !has {
			continue
		}
		if err := el.WaitInvisible(); err != nil {
			return overlayError(sel, err)
		}
	}

	// Handlers attached to the form keep running briefly after the overlay
	// hides.
	_ = retry.Sleep(ctx, overlaySettle)
	return nil
}

const overlaySettle = 500 * time.Millisecond

func overlayError(sel string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrOverlayBlocking, sel)
	}
	return fmt.Errorf("overlay %s: %w", sel, err)
}

func (p *Port) scoped(ctx context.Context) (*rod.Page, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	return p.page.Context(ctx), cancel
}
