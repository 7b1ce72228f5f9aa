package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jpatrickfarrell/jat/internal/beads"
	"github.com/jpatrickfarrell/jat/internal/config"
	"github.com/jpatrickfarrell/jat/internal/logging"
	"github.com/jpatrickfarrell/jat/internal/mail"
	"github.com/jpatrickfarrell/jat/internal/session"
	"github.com/jpatrickfarrell/jat/internal/signal"
	"github.com/jpatrickfarrell/jat/internal/state"
	"github.com/jpatrickfarrell/jat/internal/tmux"
	"github.com/sirupsen/logrus"
)

// NewMux assembles the dashboard page, JSON API, and websocket routes.
func NewMux(fetcher Fetcher, ops SessionOps, store *signal.Store, overrides *state.OverrideStore, hub *Hub, fetchTimeout time.Duration, captureLines int) (http.Handler, error) {
	dashboard, err := NewDashboardHandler(fetcher, fetchTimeout)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", NewAPIHandler(fetcher, ops, store, overrides, captureLines))
	mux.Handle("/ws", hub)
	mux.Handle("/", dashboard)
	return mux, nil
}

// Server owns the dashboard's long-lived pieces: the signal store with
// its journal, the optional JSONL watcher, the websocket hub, and the
// HTTP listener.
type Server struct {
	cfg   *config.Config
	store *signal.Store

	journal    *signal.Journal
	watcher    *signal.Watcher
	hubCancel  func()
	httpServer *http.Server
	log        *logrus.Entry
}

// NewServer wires up a dashboard server from configuration.
func NewServer(cfg *config.Config) (*Server, error) {
	store := signal.NewStore()
	overrides := state.NewOverrideStore()

	s := &Server{
		cfg:   cfg,
		store: store,
		log:   logging.NewLogger("server"),
	}

	if cfg.JournalPath != "" {
		journal, err := signal.OpenJournal(cfg.JournalPath)
		if err != nil {
			return nil, fmt.Errorf("opening signal journal: %w", err)
		}
		if err := store.AttachJournal(journal); err != nil {
			journal.Close()
			return nil, fmt.Errorf("restoring signal journal: %w", err)
		}
		s.journal = journal
	}

	if cfg.SignalFile != "" {
		watcher, err := signal.NewWatcher(cfg.SignalFile, store)
		if err != nil {
			s.closePartial()
			return nil, fmt.Errorf("watching signal file: %w", err)
		}
		s.watcher = watcher
	}

	tm := tmux.New()
	tasks := beads.NewClient(cfg.WorkDir)
	fetcher := NewLiveFetcher(
		session.NewLister(tm),
		store,
		overrides,
		tasks,
		mail.NewMailbox(tasks),
		cfg.FetchTimeoutDuration(),
	)

	hub := NewHub(store, overrides)
	s.hubCancel = hub.Run()

	mux, err := NewMux(fetcher, tm, store, overrides, hub, cfg.FetchTimeoutDuration(), cfg.CaptureLines)
	if err != nil {
		s.closePartial()
		return nil, err
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// ListenAndServe blocks serving the dashboard until Shutdown.
func (s *Server) ListenAndServe() error {
	s.log.WithField("listen", s.cfg.Listen).Info("dashboard listening")
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the HTTP listener and releases the store's resources.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.closePartial()
	return err
}

// closePartial tears down whatever has been started so far.
func (s *Server) closePartial() {
	if s.hubCancel != nil {
		s.hubCancel()
		s.hubCancel = nil
	}
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
	if s.journal != nil {
		s.journal.Close()
		s.journal = nil
	}
}
