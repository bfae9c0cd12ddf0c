package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// fanoutHandler forwards every record to each child handler that
// accepts its level. It backs the per-run log files: the console
// handler plus one file handler per configured level.
type fanoutHandler struct {
	children []slog.Handler
}

func (h *fanoutHandler) Enabled(_ context.Context, level slog.Level) bool {
	for _, child := range h.children {
		if child.Enabled(context.Background(), level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, child := range h.children {
		if !child.Enabled(ctx, record.Level) {
			continue
		}
		if err := child.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	children := make([]slog.Handler, len(h.children))
	for i, child := range h.children {
		children[i] = child.WithAttrs(attrs)
	}
	return &fanoutHandler{children: children}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	children := make([]slog.Handler, len(h.children))
	for i, child := range h.children {
		children[i] = child.WithGroup(name)
	}
	return &fanoutHandler{children: children}
}

func parseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warning", "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", name)
}

// attachRunLogs builds a run logger that also writes one file per
// configured level into dir. The returned closer detaches the files
// when the run ends.
func attachRunLogs(base *slog.Logger, dir string, levels []string) (*slog.Logger, func(), error) {
	if len(levels) == 0 {
		return base, func() {}, nil
	}

	children := []slog.Handler{base.Handler()}
	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}

	for _, name := range levels {
		level, err := parseLevel(name)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		f, err := os.OpenFile(filepath.Join(dir, strings.ToLower(name)+".log"),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		files = append(files, f)
		children = append(children, slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	}

	return slog.New(&fanoutHandler{children: children}), closeAll, nil
}
