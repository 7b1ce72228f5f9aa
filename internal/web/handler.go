package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/jpatrickfarrell/jat/internal/logging"
	"github.com/jpatrickfarrell/jat/internal/mail"
	"github.com/jpatrickfarrell/jat/internal/timeline"
	"github.com/sirupsen/logrus"
)

// defaultFeedLimit caps the timeline feed on the dashboard page.
const defaultFeedLimit = 100

// DashboardHandler renders the main dashboard page.
type DashboardHandler struct {
	fetcher      Fetcher
	template     *templateSet
	fetchTimeout time.Duration
	log          *logrus.Entry
}

// NewDashboardHandler creates the dashboard page handler.
func NewDashboardHandler(fetcher Fetcher, fetchTimeout time.Duration) (*DashboardHandler, error) {
	tmpl, err := LoadTemplates()
	if err != nil {
		return nil, err
	}
	if fetchTimeout <= 0 {
		fetchTimeout = 5 * time.Second
	}
	return &DashboardHandler{
		fetcher:      fetcher,
		template:     tmpl,
		fetchTimeout: fetchTimeout,
		log:          logging.NewLogger("web"),
	}, nil
}

// ServeHTTP handles GET / and renders the dashboard. Fetches run in
// parallel; a slow or failed source leaves its panel empty rather than
// failing the page.
func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.fetchTimeout)
	defer cancel()

	var (
		sessions []SessionRow
		feed     timeline.Result
		messages []mail.Message
		wg       sync.WaitGroup
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		var err error
		sessions, err = h.fetcher.FetchSessions()
		if err != nil {
			h.log.WithError(err).Warn("fetching sessions failed")
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		feed, err = h.fetcher.FetchTimeline(defaultFeedLimit)
		if err != nil {
			h.log.WithError(err).Warn("fetching timeline failed")
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		messages, err = h.fetcher.FetchMail(20)
		if err != nil {
			h.log.WithError(err).Warn("fetching mail failed")
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		h.log.Warnf("dashboard fetch timeout after %v", h.fetchTimeout)
	}

	data := DashboardData{
		Sessions:    sessions,
		Feed:        feed.Events,
		FeedCounts:  feed.Counts,
		Mail:        messages,
		GeneratedAt: time.Now(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.template.Render(w, data); err != nil {
		h.log.WithError(err).Error("rendering dashboard failed")
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}
