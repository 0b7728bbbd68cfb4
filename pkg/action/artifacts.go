package action

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/bookqa/bookqa/pkg/core"
	"github.com/bookqa/bookqa/pkg/logger"
)

// CaptureArtifacts writes the configured debug artifacts of the current page
// to the session sink. Each capture is attempted independently; a failed
// browser-log read is attached as text instead of the logs.
func (s *Session) CaptureArtifacts(ctx context.Context, cfg core.ArtifactConfig) error {
	release, err := s.acquire()
	if err != nil {
		return err
	}
	defer release()

	var errs []error
	attach := func(name, contentType string, body []byte) {
		if err := s.sink.Attach(name, contentType, body); err != nil {
			errs = append(errs, fmt.Errorf("attach %s: %w", name, err))
		}
	}

	if cfg.Screenshot {
		if png, err := s.drv.Screenshot(ctx); err != nil {
			errs = append(errs, fmt.Errorf("screenshot: %w", err))
		} else {
			attach(core.AttachmentScreenshot, core.ContentTypePNG, png)
		}
	}

	if cfg.PageSource {
		if src, err := s.drv.PageSource(ctx); err != nil {
			errs = append(errs, fmt.Errorf("page source: %w", err))
		} else {
			attach(core.AttachmentPageSource, core.ContentTypeHTML, []byte(src))
		}
	}

	if cfg.BrowserLogs {
		entries, err := s.drv.BrowserLogs(ctx)
		if err != nil {
			attach(core.AttachmentBrowserLogs+" Error", core.ContentTypeText,
				[]byte("Could not get browser logs: "+err.Error()))
		} else {
			attach(core.AttachmentBrowserLogs, core.ContentTypeText, []byte(FormatLogs(entries)))
		}
	}

	if cfg.Video && cfg.VideoURL != "" && s.drv.SessionID() != "" {
		attach(core.AttachmentVideo, core.ContentTypeHTML, []byte(VideoHTML(cfg.VideoURL, s.drv.SessionID())))
	}

	if len(errs) > 0 {
		err := errors.Join(errs...)
		logger.Warn("capturing artifacts: %v", err)
		return err
	}
	return nil
}

// FormatLogs renders browser log entries one per line as "LEVEL: message".
func FormatLogs(entries []core.LogEntry) string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.Level + ": " + e.Message
	}
	return strings.Join(lines, "\n")
}

// VideoURL returns the recording location of a session on a Selenoid video
// recorder rooted at base.
func VideoURL(base, sessionID string) string {
	return strings.TrimRight(base, "/") + "/" + sessionID + ".mp4"
}

// VideoHTML embeds the session recording in a small HTML page.
func VideoHTML(base, sessionID string) string {
	src := html.EscapeString(VideoURL(base, sessionID))
	return `<html><body><video width="100%" height="100%" controls autoplay>` +
		`<source src="` + src + `" type="video/mp4"></video></body></html>`
}
