// Package export persists run artifacts: full-page screenshots, CSV
// tables and downloaded product imagery.
package export

import (
	"log/slog"

	"github.com/spf13/cast"

	"github.com/humlab/amazon-scraper/internal/browser"
	"github.com/humlab/amazon-scraper/internal/scrape"
)

const (
	pageWidthScript  = `Math.max(document.body.scrollWidth, document.body.offsetWidth, document.documentElement.clientWidth, document.documentElement.scrollWidth, document.documentElement.offsetWidth)`
	pageHeightScript = `Math.max(document.body.scrollHeight, document.body.offsetHeight, document.documentElement.clientHeight, document.documentElement.scrollHeight, document.documentElement.offsetHeight)`
)

// SavePageAsPNG captures a full-page screenshot, growing the viewport
// to the document's rendered extent first. An empty url means the
// session already sits on the target page; a non-empty url is
// navigated to and cleared of consent and delivery overlays before
// capture.
func SavePageAsPNG(session browser.Session, gate *scrape.Gate, url, path string, logger *slog.Logger) error {
	if url != "" {
		if err := session.Navigate(url); err != nil {
			return err
		}
		if err := browser.AwaitReady(session); err != nil {
			return err
		}
		gate.RejectCookies(session)
		gate.DismissPopup(session, "dismiss_delivery_options")
	}

	width, err := session.Eval(pageWidthScript)
	if err != nil {
		return err
	}
	height, err := session.Eval(pageHeightScript)
	if err != nil {
		return err
	}

	if err := session.SetViewport(cast.ToInt(width), cast.ToInt(height)); err != nil {
		return err
	}
	if err := session.CaptureScreenshot(path); err != nil {
		return err
	}

	logger.Debug("page saved", "path", path, "width", width, "height", height)
	return nil
}
