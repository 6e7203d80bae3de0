package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"grocerycheck/core/event"
	"grocerycheck/infrastructure/browser"
)

// bodyLocator selects the document body for DOM dumps.
var bodyLocator = browser.CSS("page body", "body")

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ArtifactWriter saves screenshots and DOM dumps of failed scenarios.
type ArtifactWriter struct {
	driver  browser.Driver
	logger  *slog.Logger
	saveDir string
	now     func() time.Time
}

// NewArtifactWriter creates a writer that saves under dir.
func NewArtifactWriter(driver browser.Driver, dir string, logger *slog.Logger) *ArtifactWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArtifactWriter{
		driver:  driver,
		logger:  logger,
		saveDir: dir,
		now:     time.Now,
	}
}

// Dir returns the directory artifacts are written to.
func (w *ArtifactWriter) Dir() string {
	return w.saveDir
}

// SaveFailure writes a PNG screenshot and the body HTML named after label.
// It returns the paths written; a part that cannot be captured is skipped
// and its error returned alongside the other paths.
func (w *ArtifactWriter) SaveFailure(ctx context.Context, label string) ([]string, error) {
	if !w.driver.IsRunning() {
		return nil, browser.ErrNotRunning
	}
	if err := os.MkdirAll(w.saveDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}

	stem := fmt.Sprintf("%s-%s", unsafeName.ReplaceAllString(label, "_"), w.now().Format("20060102-150405.000"))
	var (
		paths    []string
		firstErr error
	)

	if png, err := w.driver.CaptureScreenshot(ctx); err != nil {
		firstErr = fmt.Errorf("capture screenshot: %w", err)
	} else if path, err := w.write(stem+".png", png); err != nil {
		firstErr = err
	} else {
		paths = append(paths, path)
	}

	if html, err := w.driver.OuterHTML(ctx, bodyLocator); err != nil {
		if firstErr == nil {
			firstErr = fmt.Errorf("read page html: %w", err)
		}
	} else if path, err := w.write(stem+".html", []byte(html)); err != nil {
		if firstErr == nil {
			firstErr = err
		}
	} else {
		paths = append(paths, path)
	}

	return paths, firstErr
}

func (w *ArtifactWriter) write(name string, data []byte) (string, error) {
	path := filepath.Join(w.saveDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	w.logger.Debug("Artifact saved", "path", path)
	return path, nil
}

// CaptureFailure saves failure artifacts when the session has a writer and
// publishes one event per file. Errors are logged, not returned.
func (s *Session) CaptureFailure(ctx context.Context) []string {
	if s.artifacts == nil || !s.driver.IsRunning() {
		return nil
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	label := s.scenario
	if label == "" {
		label = s.id
	}
	paths, err := s.artifacts.SaveFailure(actx, label)
	if err != nil {
		s.logger.Warn("Failed to save failure artifacts", "error", err)
	}
	for _, p := range paths {
		s.publishEvent(event.NewArtifactSaved(s.runID, s.id, p))
	}
	return paths
}
