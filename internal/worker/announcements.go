package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "github.com/Taichi-iskw/audiorefresh/internal/errors"
	"github.com/Taichi-iskw/audiorefresh/internal/logging"
	"github.com/Taichi-iskw/audiorefresh/internal/model"
	"github.com/fsnotify/fsnotify"
)

const (
	announcementExt    = ".json"
	rejectedSuffix     = ".rejected"
	defaultPollEvery   = 5 * time.Second
	announcementSettle = 50 * time.Millisecond
)

// Announcement tells the watcher that a job for a record finished.
// Producers write it under a temporary name and rename it to *.json.
type Announcement struct {
	RecordID string `json:"record_id"`
	JobKind  string `json:"job_kind"`
}

// AnnouncementWatcher processes announcement files dropped into a directory
type AnnouncementWatcher struct {
	dir         string
	processor   Processor
	unitTimeout time.Duration
	pollEvery   time.Duration
	logger      *slog.Logger
}

// NewAnnouncementWatcher creates a watcher for dir
func NewAnnouncementWatcher(dir string, processor Processor, unitTimeout time.Duration, logger *slog.Logger) *AnnouncementWatcher {
	if unitTimeout <= 0 {
		unitTimeout = 2 * time.Minute
	}
	return &AnnouncementWatcher{
		dir:         dir,
		processor:   processor,
		unitTimeout: unitTimeout,
		pollEvery:   defaultPollEvery,
		logger:      logging.NewComponentLogger(logger, "announcements"),
	}
}

// Run handles existing announcements, then new ones as they arrive, until
// ctx is done. It falls back to polling when fsnotify is unavailable.
func (w *AnnouncementWatcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return apperrors.Wrap(err, apperrors.CodeConfig, "failed to create announcements directory")
	}

	w.Scan(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("fsnotify not available, falling back to polling", logging.Error(err))
		return w.poll(ctx)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		w.logger.Warn("failed to watch announcements directory, falling back to polling", logging.Error(err))
		return w.poll(ctx)
	}
	w.logger.Info("watching announcements", logging.String("dir", w.dir))

	// Polling covers events lost while a unit was running
	ticker := time.NewTicker(w.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return w.poll(ctx)
			}
			if !isAnnouncement(event.Name) || !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			time.Sleep(announcementSettle)
			w.Handle(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return w.poll(ctx)
			}
			w.logger.Warn("watcher error", logging.Error(err))
		case <-ticker.C:
			w.Scan(ctx)
		}
	}
}

func (w *AnnouncementWatcher) poll(ctx context.Context) error {
	ticker := time.NewTicker(w.pollEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.Scan(ctx)
		}
	}
}

// Scan handles every announcement currently in the directory, oldest name first
func (w *AnnouncementWatcher) Scan(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("failed to list announcements", logging.Error(err))
		return
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && isAnnouncement(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if ctx.Err() != nil {
			return
		}
		w.Handle(ctx, filepath.Join(w.dir, name))
	}
}

// Handle processes one announcement file. Handled files are removed and
// malformed ones renamed with a .rejected suffix. Files whose processing
// failed transiently stay for the next scan.
func (w *AnnouncementWatcher) Handle(ctx context.Context, path string) {
	logger := w.logger.With(logging.String("file", filepath.Base(path)))

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to read announcement", logging.Error(err))
		}
		return
	}

	ann, kind, err := parseAnnouncement(data)
	if err != nil {
		logger.Warn("rejecting announcement", logging.Error(err))
		if err := os.Rename(path, path+rejectedSuffix); err != nil {
			logger.Error("failed to reject announcement", logging.Error(err))
		}
		return
	}

	unitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.unitTimeout)
	defer cancel()

	logger = logger.With(
		logging.String(logging.FieldRecordID, ann.RecordID),
		logging.String(logging.FieldJobKind, string(kind)),
	)
	if _, err := w.processor.Process(unitCtx, ann.RecordID, kind); err != nil {
		if apperrors.IsTransient(err) {
			logger.Warn("announcement will be retried", logging.Error(err))
			return
		}
		logger.Error("announcement processing failed", logging.Error(err))
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Error("failed to remove announcement", logging.Error(err))
	}
}

func parseAnnouncement(data []byte) (*Announcement, model.JobKind, error) {
	var ann Announcement
	if err := json.Unmarshal(data, &ann); err != nil {
		return nil, "", fmt.Errorf("invalid JSON: %w", err)
	}
	ann.RecordID = strings.TrimSpace(ann.RecordID)
	if ann.RecordID == "" {
		return nil, "", fmt.Errorf("record_id is required")
	}
	kind, err := model.ParseJobKind(ann.JobKind)
	if err != nil {
		return nil, "", err
	}
	return &ann, kind, nil
}

func isAnnouncement(name string) bool {
	return strings.HasSuffix(filepath.Base(name), announcementExt)
}
