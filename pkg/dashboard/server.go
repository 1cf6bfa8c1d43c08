// Package dashboard serves the prediction pages and the JSON API.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/gorilla/mux"

	"github.com/richard-senior/matchpredict/internal/logger"
	"github.com/richard-senior/matchpredict/pkg/app"
	"github.com/richard-senior/matchpredict/pkg/predictor"
	"github.com/richard-senior/matchpredict/pkg/sentiment"
)

// Server handles HTTP requests against a loaded App
type Server struct {
	app     *app.App
	handler http.Handler
}

// NewServer builds the router and its middleware chain.
func NewServer(a *app.App) *Server {
	s := &Server{app: a}
	r := s.SetupRoutes()
	s.handler = withRequestID(logRequests(corsHandler(a.Config.Server.AllowedOrigins)(r)))
	return s
}

// SetupRoutes configures the HTTP routes
func (s *Server) SetupRoutes() *mux.Router {
	r := mux.NewRouter()

	// pages
	r.HandleFunc("/", s.handleIndex).Methods("GET")
	r.HandleFunc("/predict", s.handlePredictPage).Methods("GET")
	r.HandleFunc("/charts/importance.svg", s.handleImportanceChart).Methods("GET")

	// JSON API
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/teams", s.handleTeams).Methods("GET")
	api.HandleFunc("/teams/{team}", s.handleTeam).Methods("GET")
	api.HandleFunc("/sentiment/{team}", s.handleSentiment).Methods("GET")
	api.HandleFunc("/predict", s.handlePredict).Methods("POST")

	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then drains for up to five seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errChan := make(chan error, 1)
	go func() {
		logger.Highlight("Dashboard listening on", addr)
		errChan <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down dashboard")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type predictRequest struct {
	Home string `json:"home"`
	Away string `json:"away"`
}

type errorResponse struct {
	Error       string   `json:"error"`
	Suggestions []string `json:"suggestions,omitempty"`
	RequestID   string   `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to write response", err)
	}
}

// statusFor maps prediction errors to rejected requests. Anything else is ours.
func statusFor(err error) int {
	switch {
	case errors.Is(err, predictor.ErrUnknownTeam), errors.Is(err, predictor.ErrSameTeam):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func suggestionsFor(err error) []string {
	var unknown *predictor.UnknownTeamError
	if errors.As(err, &unknown) {
		return unknown.Suggestions
	}
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= 500 {
		logger.Error("Request failed", r.URL.Path, err)
	}
	writeJSON(w, status, errorResponse{
		Error:       err.Error(),
		Suggestions: suggestionsFor(err),
		RequestID:   RequestID(r.Context()),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	templ.Handler(IndexPage(s.app.Teams())).ServeHTTP(w, r)
}

func (s *Server) handlePredictPage(w http.ResponseWriter, r *http.Request) {
	home := strings.TrimSpace(r.URL.Query().Get("home"))
	away := strings.TrimSpace(r.URL.Query().Get("away"))
	teams := s.app.Teams()

	if home == "" || away == "" {
		page := PredictPage(teams, home, away, nil, ErrorPanel("Select both a home and an away team.", nil))
		templ.Handler(page, templ.WithStatus(http.StatusBadRequest)).ServeHTTP(w, r)
		return
	}

	report, err := s.app.Predict(home, away)
	if err != nil {
		status := statusFor(err)
		msg := err.Error()
		if status >= 500 {
			logger.Error("Prediction failed", home, away, err)
			msg = "The prediction could not be made."
		}
		page := PredictPage(teams, home, away, nil, ErrorPanel(msg, suggestionsFor(err)))
		templ.Handler(page, templ.WithStatus(status)).ServeHTTP(w, r)
		return
	}
	templ.Handler(PredictPage(teams, home, away, report, nil)).ServeHTTP(w, r)
}

func (s *Server) handleImportanceChart(w http.ResponseWriter, r *http.Request) {
	report, err := s.app.Predict(r.URL.Query().Get("home"), r.URL.Query().Get("away"))
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	svg, err := ImportanceChart(report)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out, err := svg.ToSVG()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "max-age=300")
	w.Write([]byte(out))
}

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"teams": s.app.Teams(),
	})
}

func (s *Server) handleTeam(w http.ResponseWriter, r *http.Request) {
	summary, err := s.app.Team(mux.Vars(r)["team"])
	if err != nil {
		s.writeError(w, r, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	team := mux.Vars(r)["team"]
	tally := s.app.Sentiment.For(team)
	writeJSON(w, http.StatusOK, map[string]any{
		"team":     team,
		"tally":    tally,
		"noData":   tally.IsEmpty(),
		"positive": tally.Share(sentiment.Positive),
		"neutral":  tally.Share(sentiment.Neutral),
		"negative": tally.Share(sentiment.Negative),
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, errors.New("invalid JSON body"))
		return
	}
	if req.Home == "" || req.Away == "" {
		s.writeError(w, r, http.StatusBadRequest, errors.New("home and away are required"))
		return
	}
	report, err := s.app.Predict(req.Home, req.Away)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"teams":    s.app.Features.Len(),
		"matches":  len(s.app.Corpus.Matches),
		"checksum": s.app.Corpus.Checksum,
		"loadedAt": s.app.LoadedAt.UTC().Format(time.RFC3339),
	})
}
