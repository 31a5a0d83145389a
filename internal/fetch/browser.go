package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jonathan/nps-watcher/internal/types"
)

const (
	signInURL   = "https://accounts.google.com/"
	signedInURL = "https://myaccount.google.com/"

	emailSelector    = `input[type="email"]`
	passwordSelector = `input[type="password"]`

	// renderWait gives the report's JavaScript time to paint the comments
	// before the page body is read.
	renderWait = 10 * time.Second
)

// Credentials are the Google account secrets used for headless sign-in.
type Credentials struct {
	Email    string
	Password string
}

// Timeouts groups the browser wait budgets.
type Timeouts struct {
	Navigation   time.Duration
	Selector     time.Duration
	LoginSuccess time.Duration // ceiling for the credential form steps
	PushApproval time.Duration // how long to wait for the phone push
}

// Options configures a Browser.
type Options struct {
	ReportURL     string
	Credentials   Credentials
	Sessions      *SessionStore
	Timeouts      Timeouts
	ScreenshotDir string // failure screenshots land here; empty disables them
}

// Browser performs the authenticated fetches against the dashboard. Each
// call launches a fresh headless Chrome; the session lives in the
// SessionStore, not the browser profile.
type Browser struct {
	opts Options
	log  zerolog.Logger
}

// NewBrowser returns a Browser with the given options.
func NewBrowser(opts Options, log zerolog.Logger) *Browser {
	return &Browser{opts: opts, log: log}
}

// newContext builds a headless browser context. The returned cancel func
// tears down both the tab and the browser process.
func newContext(ctx context.Context) (context.Context, context.CancelFunc) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx)
	return browserCtx, func() {
		cancelCtx()
		cancelAlloc()
	}
}

// Login performs a fully headless Google sign-in and persists the resulting
// cookies to the SessionStore. The second factor is assumed to be a push
// notification approved on a phone, so after submitting the password this
// waits up to the push-approval budget for the account page to appear.
func (b *Browser) Login(ctx context.Context) error {
	browserCtx, cancel := newContext(ctx)
	defer cancel()

	b.log.Info().Msg("navigating to Google sign-in page")

	formCtx, cancelForm := context.WithTimeout(browserCtx, b.opts.Timeouts.LoginSuccess)
	defer cancelForm()

	if err := runWithTimeout(formCtx, b.opts.Timeouts.Navigation,
		chromedp.Navigate(signInURL),
	); err != nil {
		return fmt.Errorf("open sign-in page: %w", err)
	}

	if err := runWithTimeout(formCtx, b.opts.Timeouts.Selector,
		chromedp.WaitVisible(emailSelector, chromedp.ByQuery),
		chromedp.SendKeys(emailSelector, b.opts.Credentials.Email, chromedp.ByQuery),
		chromedp.Click("#identifierNext", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("submit email: %w", err)
	}

	if err := runWithTimeout(formCtx, b.opts.Timeouts.Selector,
		chromedp.WaitVisible(passwordSelector, chromedp.ByQuery),
		chromedp.SendKeys(passwordSelector, b.opts.Credentials.Password, chromedp.ByQuery),
		chromedp.Click("#passwordNext", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("submit password: %w", err)
	}

	b.log.Info().Dur("budget", b.opts.Timeouts.PushApproval).Msg("password submitted, waiting for push approval on your phone")
	if err := waitForURLPrefix(browserCtx, signedInURL, b.opts.Timeouts.PushApproval); err != nil {
		return fmt.Errorf("sign-in not confirmed (push not approved in time?): %w", err)
	}

	cookies, err := dumpCookies(browserCtx)
	if err != nil {
		return fmt.Errorf("read session cookies: %w", err)
	}
	if err := b.opts.Sessions.save(cookies); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	b.log.Info().Str("path", b.opts.Sessions.Path()).Msg("sign-in succeeded, session saved")
	return nil
}

// FetchLines opens the report with the persisted session and returns the
// visible text lines of the page body. A redirect to the sign-in page (or an
// unreadable session artifact) yields types.ErrAuthRejected. A page whose
// body cannot be read is logged and treated as empty.
func (b *Browser) FetchLines(ctx context.Context) ([]string, error) {
	params, err := b.opts.Sessions.load()
	if err != nil {
		b.log.Warn().Err(err).Msg("session artifact unreadable")
		return nil, types.ErrAuthRejected
	}

	browserCtx, cancel := newContext(ctx)
	defer cancel()

	if err := runWithTimeout(browserCtx, b.opts.Timeouts.Navigation,
		restoreCookies(params),
		chromedp.Navigate(b.opts.ReportURL),
	); err != nil {
		return nil, fmt.Errorf("open report: %w", err)
	}

	rejected, err := b.redirectedToSignIn(browserCtx)
	if err != nil {
		return nil, err
	}
	if rejected {
		b.log.Warn().Msg("redirected to sign-in (auth invalid)")
		return nil, types.ErrAuthRejected
	}

	if err := chromedp.Run(browserCtx, chromedp.Sleep(renderWait)); err != nil {
		return nil, fmt.Errorf("wait for report render: %w", err)
	}

	// Looker sometimes bounces to sign-in only after its own scripts run.
	rejected, err = b.redirectedToSignIn(browserCtx)
	if err != nil {
		return nil, err
	}
	if rejected {
		b.log.Warn().Msg("redirected to sign-in after render wait (auth invalid)")
		return nil, types.ErrAuthRejected
	}

	var html string
	if err := runWithTimeout(browserCtx, b.opts.Timeouts.Selector,
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		b.screenshot(browserCtx)
		b.log.Error().Err(err).Msg("could not read page body")
		return []string{}, nil
	}

	return ExtractLines(html), nil
}

func (b *Browser) redirectedToSignIn(ctx context.Context) (bool, error) {
	var current string
	if err := chromedp.Run(ctx, chromedp.Location(&current)); err != nil {
		return false, fmt.Errorf("read page location: %w", err)
	}
	return strings.Contains(current, "accounts.google.com"), nil
}

// screenshot captures the current tab for post-mortem diagnosis.
func (b *Browser) screenshot(ctx context.Context) {
	if b.opts.ScreenshotDir == "" {
		return
	}
	var buf []byte
	if err := chromedp.Run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		b.log.Warn().Err(err).Msg("screenshot failed")
		return
	}
	if err := os.MkdirAll(b.opts.ScreenshotDir, 0o755); err != nil {
		b.log.Warn().Err(err).Msg("screenshot dir unavailable")
		return
	}
	name := filepath.Join(b.opts.ScreenshotDir, fmt.Sprintf("failure-%s.png", uuid.NewString()))
	if err := os.WriteFile(name, buf, 0o644); err != nil {
		b.log.Warn().Err(err).Msg("screenshot write failed")
		return
	}
	b.log.Info().Str("path", name).Msg("saved failure screenshot")
}

func runWithTimeout(ctx context.Context, d time.Duration, actions ...chromedp.Action) error {
	tctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return chromedp.Run(tctx, actions...)
}

// waitForURLPrefix polls the tab location until it reaches the given prefix
// or the budget runs out.
func waitForURLPrefix(ctx context.Context, prefix string, d time.Duration) error {
	tctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	for {
		var current string
		if err := chromedp.Run(tctx, chromedp.Location(&current)); err != nil {
			return err
		}
		if strings.HasPrefix(current, prefix) {
			return nil
		}
		select {
		case <-tctx.Done():
			return tctx.Err()
		case <-time.After(time.Second):
		}
	}
}

func restoreCookies(cookies []*network.CookieParam) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if len(cookies) == 0 {
			return nil
		}
		return storage.SetCookies(cookies).Do(ctx)
	})
}

func dumpCookies(ctx context.Context) ([]*network.Cookie, error) {
	var cookies []*network.Cookie
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = storage.GetCookies().Do(ctx)
		return err
	}))
	return cookies, err
}
