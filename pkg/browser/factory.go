package browser

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/prerender/pkg/logging"
)

// ProvisionMode selects how browser sessions are created. It is resolved
// once from configuration, not re-derived per session.
type ProvisionMode int

const (
	// ModeManaged resolves and installs a matching driver automatically.
	ModeManaged ProvisionMode = iota

	// ModeLocal runs the driver from a caller-provided directory.
	ModeLocal

	// ModeRemote connects to an already-running driver endpoint.
	ModeRemote
)

func (m ProvisionMode) String() string {
	switch m {
	case ModeLocal:
		return "local"
	case ModeRemote:
		return "remote"
	default:
		return "managed"
	}
}

// FactoryOptions configures session provisioning.
type FactoryOptions struct {
	// Kind selects the browser family: "chromium", "firefox" or "webkit".
	Kind string

	// Mode selects the provisioning mode.
	Mode ProvisionMode

	// DriverDir is the directory of an existing driver installation
	// (ModeLocal only).
	DriverDir string

	// BrowserPath overrides the browser binary location.
	BrowserPath string

	// RemoteEndpoint is the websocket endpoint of a running driver
	// (ModeRemote only).
	RemoteEndpoint string

	// Args are appended to the browser launch flags, in order.
	Args []string

	// Headless controls whether sessions run without a visible window.
	Headless bool
}

// Default session parameters.
const (
	DefaultOperationTimeout = 30 * time.Second

	defaultViewportWidth  = 1280
	defaultViewportHeight = 720
)

// PlaywrightFactory provisions sessions backed by a shared Playwright
// runtime. The runtime is started once at construction and reused for
// every session.
type PlaywrightFactory struct {
	pw   *playwright.Playwright
	opts FactoryOptions
	log  *logging.Logger
}

// NewFactory starts the Playwright runtime for the requested provisioning
// mode. In managed mode the matching driver and browser are installed
// first; the call does not return until the runtime is ready.
func NewFactory(opts FactoryOptions, log *logging.Logger) (*PlaywrightFactory, error) {
	if !knownKind(opts.Kind) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBrowser, opts.Kind)
	}

	// Keep driver output away from the host's stdio
	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	switch opts.Mode {
	case ModeLocal:
		runOpts.DriverDirectory = opts.DriverDir
		runOpts.SkipInstallBrowsers = true
	case ModeRemote:
		runOpts.SkipInstallBrowsers = true
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("%w: install driver: %w", ErrProvisioning, err)
		}
	case ModeManaged:
		runOpts.Browsers = []string{opts.Kind}
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("%w: install driver: %w", ErrProvisioning, err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: start driver: %w", ErrProvisioning, err)
	}

	log.Infof("playwright runtime started (kind=%s mode=%s)", opts.Kind, opts.Mode)

	return &PlaywrightFactory{
		pw:   pw,
		opts: opts,
		log:  log,
	}, nil
}

// New launches (or connects) one browser session and blocks until its page
// is ready. Anything already opened when a later step fails is closed
// again before the error returns.
func (f *PlaywrightFactory) New() (Driver, error) {
	browser, err := f.connect()
	if err != nil {
		return nil, err
	}

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  defaultViewportWidth,
			Height: defaultViewportHeight,
		},
	})
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("%w: create context: %w", ErrProvisioning, err)
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		browser.Close()
		return nil, fmt.Errorf("%w: create page: %w", ErrProvisioning, err)
	}

	page.SetDefaultTimeout(float64(DefaultOperationTimeout.Milliseconds()))

	now := time.Now()
	session := &Session{
		id:         uuid.New().String(),
		browser:    browser,
		context:    context,
		page:       page,
		createdAt:  now,
		lastUsedAt: now,
	}

	f.log.Debugf("session %s provisioned", session.id)
	return session, nil
}

// connect obtains a browser instance according to the provisioning mode.
func (f *PlaywrightFactory) connect() (playwright.Browser, error) {
	bt := f.browserType()

	if f.opts.Mode == ModeRemote {
		browser, err := bt.Connect(f.opts.RemoteEndpoint)
		if err != nil {
			return nil, fmt.Errorf("%w: connect %s: %w", ErrProvisioning, f.opts.RemoteEndpoint, err)
		}
		return browser, nil
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(f.opts.Headless),
		Args:     f.opts.Args,
	}
	if f.opts.BrowserPath != "" {
		launchOpts.ExecutablePath = playwright.String(f.opts.BrowserPath)
	}

	browser, err := bt.Launch(launchOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: launch %s: %w", ErrProvisioning, f.opts.Kind, err)
	}
	return browser, nil
}

func (f *PlaywrightFactory) browserType() playwright.BrowserType {
	switch f.opts.Kind {
	case "firefox":
		return f.pw.Firefox
	case "webkit":
		return f.pw.WebKit
	default:
		return f.pw.Chromium
	}
}

// Close stops the shared Playwright runtime. Sessions must be closed
// first; the pool's Shutdown takes care of that.
func (f *PlaywrightFactory) Close() error {
	if err := f.pw.Stop(); err != nil {
		return fmt.Errorf("stop playwright: %w", err)
	}
	return nil
}

func knownKind(kind string) bool {
	switch kind {
	case "chromium", "firefox", "webkit":
		return true
	}
	return false
}
