package scrape

import (
	"time"

	"github.com/humlab/amazon-scraper/internal/browser"
)

// RejectCookies clicks the configured cookie-consent rejection button
// when one is present. Best effort: absence or a failed click is
// logged, never fatal.
func (g *Gate) RejectCookies(session browser.Session) {
	g.dismiss(session, "reject_cookies")
}

// DismissPopup clicks a configured popup-dismissal control when
// present. Best effort, like RejectCookies.
func (g *Gate) DismissPopup(session browser.Session, key string) {
	g.dismiss(session, key)
}

func (g *Gate) dismiss(session browser.Session, key string) {
	if err := browser.AwaitReady(session); err != nil {
		g.logger.Debug("page not ready for dismissal", "key", key, "error", err)
		return
	}

	el, err := g.Find(session, key)
	if err != nil || el == nil {
		return
	}
	if err := el.Click(); err == nil {
		return
	}

	// A consent overlay re-rendering under us leaves a stale handle;
	// reload and take one more shot.
	if err := session.Refresh(); err != nil {
		g.logger.Debug("refresh after stale dismissal failed", "key", key, "error", err)
		return
	}
	if err := g.Wait(session, key, 10*time.Second); err != nil {
		return
	}
	el, err = g.Find(session, key)
	if err != nil || el == nil {
		return
	}
	if err := el.Click(); err != nil {
		g.logger.Debug("dismissal click failed", "key", key, "error", err)
	}
}
