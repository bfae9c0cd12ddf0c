package browser

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Options controls session launch.
type Options struct {
	Headless    bool
	Stealth     bool
	UserAgent   string
	NavTimeout  time.Duration
	WindowSize  string
	UserDataDir string
}

// RodSession is the rod-backed Session. One session per pipeline run;
// every navigation and lookup goes through its single page.
type RodSession struct {
	browser *rod.Browser
	page    *rod.Page
	opts    Options
	logger  *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Launch starts a browser and opens the session page.
func Launch(opts Options, logger *slog.Logger) (*RodSession, error) {
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 60 * time.Second
	}

	l := launcher.New().
		Headless(opts.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled")
	if opts.WindowSize != "" {
		l = l.Set("window-size", opts.WindowSize)
	}
	if opts.UserDataDir != "" {
		l = l.UserDataDir(opts.UserDataDir)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	var page *rod.Page
	if opts.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}

	if opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: opts.UserAgent}); err != nil {
			logger.Warn("set user agent failed", "error", err)
		}
	}

	s := &RodSession{
		browser: b,
		page:    page,
		opts:    opts,
		logger:  logger.With("component", "browser_session"),
	}
	s.logger.Debug("session ready", "headless", opts.Headless, "stealth", opts.Stealth)
	return s, nil
}

func (s *RodSession) Owner() Scope { return nil }

// Navigate loads a URL in the session page.
func (s *RodSession) Navigate(url string) error {
	if err := s.page.Timeout(s.opts.NavTimeout).Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// CurrentURL returns the page's current location.
func (s *RodSession) CurrentURL() (string, error) {
	info, err := s.page.Info()
	if err != nil {
		return "", fmt.Errorf("page info: %w", err)
	}
	return info.URL, nil
}

// Eval evaluates a script expression in the page.
func (s *RodSession) Eval(js string) (any, error) {
	obj, err := s.page.Eval(`() => (` + js + `)`)
	if err != nil {
		return nil, fmt.Errorf("eval: %w", err)
	}
	return obj.Value.Val(), nil
}

// Find returns the first match without waiting; nil when absent.
func (s *RodSession) Find(locator string) (Element, error) {
	ok, el, err := s.page.Has(locator)
	if err != nil {
		return nil, fmt.Errorf("find %q: %w", locator, err)
	}
	if !ok {
		return nil, nil
	}
	return &rodElement{el: el, owner: s}, nil
}

// FindAll returns every match without waiting.
func (s *RodSession) FindAll(locator string) ([]Element, error) {
	els, err := s.page.Elements(locator)
	if err != nil {
		return nil, fmt.Errorf("find all %q: %w", locator, err)
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el, owner: s})
	}
	return out, nil
}

// SetViewport resizes the page viewport.
func (s *RodSession) SetViewport(width, height int) error {
	return s.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
	})
}

// CaptureScreenshot writes a PNG of the current viewport.
func (s *RodSession) CaptureScreenshot(path string) error {
	data, err := s.page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("screenshot dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	return nil
}

// Refresh reloads the page.
func (s *RodSession) Refresh() error {
	if err := s.page.Reload(); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	return s.page.WaitLoad()
}

// Close tears down the browser. Idempotent.
func (s *RodSession) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.browser.Close()
		s.logger.Debug("session closed")
	})
	return s.closeErr
}

// rodElement adapts a rod element to the Element capability, keeping
// the scope it was found from as its owner.
type rodElement struct {
	el    *rod.Element
	owner Scope
}

func (e *rodElement) Owner() Scope { return e.owner }

func (e *rodElement) Find(locator string) (Element, error) {
	ok, el, err := e.el.Has(locator)
	if err != nil {
		return nil, fmt.Errorf("find %q: %w", locator, err)
	}
	if !ok {
		return nil, nil
	}
	return &rodElement{el: el, owner: e}, nil
}

func (e *rodElement) FindAll(locator string) ([]Element, error) {
	els, err := e.el.Elements(locator)
	if err != nil {
		return nil, fmt.Errorf("find all %q: %w", locator, err)
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el, owner: e})
	}
	return out, nil
}

// Attribute returns the DOM attribute, falling back to the JS property
// of the same name, mirroring how WebDriver exposes innerText,
// textContent and resolved hrefs.
func (e *rodElement) Attribute(name string) (string, error) {
	if attr, err := e.el.Attribute(name); err == nil && attr != nil {
		return *attr, nil
	}
	prop, err := e.el.Property(name)
	if err != nil {
		return "", fmt.Errorf("attribute %q: %w", name, err)
	}
	if prop.Nil() {
		return "", nil
	}
	return prop.Str(), nil
}

func (e *rodElement) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) Hover() error {
	return e.el.Hover()
}

func (e *rodElement) Input(text string) error {
	_ = e.el.SelectAllText()
	return e.el.Input(text)
}

// PressEnter submits from the element, the way a user confirms a
// search box.
func (e *rodElement) PressEnter() error {
	if err := e.el.Focus(); err != nil {
		return fmt.Errorf("focus: %w", err)
	}
	return e.el.Type(input.Enter)
}

func (e *rodElement) Size() (int, int, error) {
	obj, err := e.el.Eval(`() => ({width: this.offsetWidth, height: this.offsetHeight})`)
	if err != nil {
		return 0, 0, fmt.Errorf("element size: %w", err)
	}
	return obj.Value.Get("width").Int(), obj.Value.Get("height").Int(), nil
}
