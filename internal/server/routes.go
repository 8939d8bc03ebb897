package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/observability"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
)

// allCategories addresses the whole universe in /rankings/{category}.
const allCategories = "all"

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	if s.opts.Gatherer != nil {
		r.Handle("/metrics", observability.Handler(s.opts.Gatherer))
	}

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/status", s.handleStatus)
		r.Get("/rankings/{category}", s.handleRanking)
		r.Post("/runs", s.handleRun)
		r.Post("/tickers/{ticker}/recompute", s.handleRecompute)
	})

	return r
}

// ErrResponse is the JSON error body.
type ErrResponse struct {
	Error string `json:"error"`
}

func respondError(w http.ResponseWriter, r *http.Request, status int, err error) {
	render.Status(r, status)
	render.JSON(w, r, ErrResponse{Error: err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.status())
}

// RankingResponse is the JSON form of a ranking snapshot.
type RankingResponse struct {
	SnapshotID string             `json:"snapshot_id"`
	Category   string             `json:"category"`
	Weights    domain.RankWeights `json:"weights"`
	ComputedAt time.Time          `json:"computed_at"`
	Funds      []RankedFund       `json:"funds"`
}

// RankedFund is one row of RankingResponse.
type RankedFund struct {
	Rank            int      `json:"rank"`
	Ticker          string   `json:"ticker"`
	Yield           *float64 `json:"yield"`
	Volatility      *float64 `json:"volatility"`
	Return          *float64 `json:"return"`
	YieldScore      float64  `json:"yield_score"`
	VolatilityScore float64  `json:"volatility_score"`
	ReturnScore     float64  `json:"return_score"`
	CompositeScore  float64  `json:"composite_score"`
}

func newRankingResponse(s *domain.RankingSnapshot) RankingResponse {
	funds := make([]RankedFund, len(s.Funds))
	for i, f := range s.Funds {
		funds[i] = RankedFund{
			Rank:            f.Rank,
			Ticker:          f.Ticker,
			Yield:           f.YieldValue,
			Volatility:      f.VolatilityValue,
			Return:          f.ReturnValue,
			YieldScore:      f.YieldScore,
			VolatilityScore: f.VolatilityScore,
			ReturnScore:     f.ReturnScore,
			CompositeScore:  f.CompositeScore,
		}
	}
	return RankingResponse{
		SnapshotID: s.SnapshotID,
		Category:   s.Category,
		Weights:    s.Weights,
		ComputedAt: s.ComputedAt,
		Funds:      funds,
	}
}

func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	if strings.EqualFold(category, allCategories) {
		category = ""
	}

	snap, err := s.opts.Rankings.Latest(r.Context(), category)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, r, http.StatusNotFound, errors.New("no ranking for category"))
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("category", category).Msg("Load ranking failed")
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}

	render.JSON(w, r, newRankingResponse(snap))
}

// handleRun starts a batch in the background.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	busy := s.running
	s.mu.Unlock()
	if busy {
		respondError(w, r, http.StatusConflict, ErrBusy)
		return
	}

	// The batch outlives the request.
	go s.runScheduled(context.WithoutCancel(r.Context()))

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]string{"status": "started"})
}

// RecomputeResponse is the JSON response of a single-ticker recompute.
type RecomputeResponse struct {
	Ticker        string   `json:"ticker"`
	EventsWritten int      `json:"events_written"`
	Rejected      int      `json:"rejected"`
	CVPercent     *float64 `json:"cv_percent"`
	ZScore        *float64 `json:"zscore"`
	Rankings      int      `json:"rankings"`
}

// handleRecompute reruns one ticker's chain and re-ranks the universe.
func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(chi.URLParam(r, "ticker"))

	res, err := s.opts.Batch.RetryTicker(r.Context(), ticker)
	if err != nil {
		var te *domain.TickerError
		if errors.As(err, &te) {
			s.markRecomputed(ticker, false)
			s.opts.Metrics.RecordTickerFailure(te.Stage)
			respondError(w, r, http.StatusUnprocessableEntity, err)
			return
		}
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}

	snaps, err := s.opts.Batch.RankAll(r.Context(), s.markRecomputed(ticker, true))
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}

	resp := RecomputeResponse{
		Ticker:        res.Ticker,
		EventsWritten: res.EventsWritten,
		Rejected:      len(res.Rejected),
		Rankings:      len(snaps),
	}
	if res.Volatility != nil {
		cv := res.Volatility.CVPercent
		resp.CVPercent = &cv
	}
	if res.ZScore != nil {
		resp.ZScore = res.ZScore.ZScore
	}
	render.JSON(w, r, resp)
}
