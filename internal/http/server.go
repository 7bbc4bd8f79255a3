package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"donorboard/internal/analytics"
	"donorboard/internal/core"
	"donorboard/internal/log"
	"donorboard/internal/middleware/ratelimit"
	"donorboard/internal/middleware/security"
	"donorboard/internal/middleware/trace"
	"donorboard/internal/services"
)

// Dashboard is the query surface the handlers need.
type Dashboard interface {
	OrgStats(ctx context.Context, orgID string) (core.OrgDonationStats, error)
	DonorSummaries(ctx context.Context, orgID string, opts services.ListOptions) ([]core.DonorSummary, error)
	Donations(ctx context.Context, orgID string, opts services.ListOptions) ([]core.EnrichedDonation, error)
	MonthlyBuckets(ctx context.Context, orgID string, window core.DateWindow) (analytics.BucketReport, error)
	Overview(ctx context.Context, orgID string, window core.DateWindow) (services.Overview, error)
}

var _ Dashboard = (*services.DashboardService)(nil)

// Options configures NewServer. Zero values are valid.
type Options struct {
	Logger *log.Logger
	// Ready reports whether the backend can serve; nil means always ready.
	Ready func(ctx context.Context) error
	// RateLimitPerMinute caps API requests per client; zero disables it.
	RateLimitPerMinute int
	// RequestTimeout bounds a single API request.
	RequestTimeout time.Duration
	// Now returns today's date for window presets.
	Now func() time.Time
}

const DefaultRequestTimeout = 30 * time.Second

type Server struct {
	http.Server
	dashboard   Dashboard
	ready       func(ctx context.Context) error
	logger      *log.Logger
	now         func() time.Time
	timeout     time.Duration
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, dashboard Dashboard, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
		dashboard: dashboard,
		ready:     opts.Ready,
		logger:    logger.WithComponent(log.ComponentHTTP),
		now:       opts.Now,
		timeout:   opts.RequestTimeout,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.timeout <= 0 {
		s.timeout = DefaultRequestTimeout
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/orgs/{orgID}/stats", s.handleStats)
	api.HandleFunc("GET /api/orgs/{orgID}/donors", s.handleDonors)
	api.HandleFunc("GET /api/orgs/{orgID}/donations", s.handleDonations)
	api.HandleFunc("GET /api/orgs/{orgID}/monthly", s.handleMonthly)
	api.HandleFunc("GET /api/orgs/{orgID}/overview", s.handleOverview)

	var apiHandler http.Handler = api
	if opts.RateLimitPerMinute > 0 {
		s.rateLimiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute})
		apiHandler = s.rateLimiter.Middleware(extractClientIP, func(w http.ResponseWriter, r *http.Request) {
			_ = TooManyRequestsError().Write(w)
		})(apiHandler)
	}
	mux.Handle("/api/", http.TimeoutHandler(apiHandler, s.timeout, `{"error":{"code":"timeout","message":"request timed out"}}`))

	s.tracer = trace.NewMiddleware(logger, extractClientIP)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var handler http.Handler = mux
	handler = headers.Middleware(handler)
	handler = s.tracer.Middleware(handler)
	handler = log.Middleware(logger)(handler)
	s.Handler = handler

	return s
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err.Error())
			_ = ServiceUnavailableError("backend not ready").Write(w)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.dashboard.OrgStats(r.Context(), r.PathValue("orgID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, stats)
}

type listResponse[T any] struct {
	OrgID string `json:"orgId"`
	Count int    `json:"count"`
	Items []T    `json:"items"`
}

func (s *Server) handleDonors(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("orgID")
	donors, err := s.dashboard.DonorSummaries(r.Context(), orgID, ParseListOptions(r.URL.Query()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, listResponse[core.DonorSummary]{OrgID: orgID, Count: len(donors), Items: donors})
}

func (s *Server) handleDonations(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("orgID")
	donations, err := s.dashboard.Donations(r.Context(), orgID, ParseListOptions(r.URL.Query()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, listResponse[core.EnrichedDonation]{OrgID: orgID, Count: len(donations), Items: donations})
}

type monthlyResponse struct {
	OrgID     string               `json:"orgId"`
	Start     core.Date            `json:"start"`
	End       core.Date            `json:"end"`
	Buckets   []core.MonthlyBucket `json:"buckets"`
	Undated   int                  `json:"undatedDonations"`
	Truncated bool                 `json:"truncated,omitempty"`
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	window, err := ParseWindow(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	orgID := r.PathValue("orgID")
	report, err := s.dashboard.MonthlyBuckets(r.Context(), orgID, window)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, monthlyResponse{
		OrgID:     orgID,
		Start:     window.Start,
		End:       window.End,
		Buckets:   report.Buckets,
		Undated:   report.Undated,
		Truncated: report.Truncated,
	})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	window, err := ParseWindow(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	overview, err := s.dashboard.Overview(r.Context(), r.PathValue("orgID"), window)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, overview)
}
