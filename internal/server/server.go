package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"SellerWatch/internal/models"
	"SellerWatch/internal/monitor"
	"SellerWatch/internal/store"
)

// Server exposes the administrative API: add, remove, and list tracked
// sellers, plus a read-only check-now probe. Seller changes raise an
// on-change event on the scheduler.
type Server struct {
	repo         *store.SellerRepository
	orchestrator *monitor.Orchestrator
	scheduler    *monitor.Scheduler
}

// New builds the admin server.
func New(repo *store.SellerRepository, orchestrator *monitor.Orchestrator, scheduler *monitor.Scheduler) *Server {
	return &Server{repo: repo, orchestrator: orchestrator, scheduler: scheduler}
}

// Router assembles the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api/sellers", func(r chi.Router) {
		r.Get("/", s.handleListSellers)
		r.Post("/", s.handleAddSeller)
		r.Delete("/{handle}/{kind}", s.handleRemoveSeller)
		r.Post("/{handle}/{kind}/check", s.handleCheckSeller)
	})
	return r
}

// Start runs the admin API on the given address until the context is
// canceled, then drains in-flight requests and returns.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router()}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Printf("Starting admin API server on %s", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Println("Admin API server stopped.")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListSellers(w http.ResponseWriter, r *http.Request) {
	var (
		sellers []models.TrackedSeller
		err     error
	)
	if kindParam := r.URL.Query().Get("kind"); kindParam != "" {
		kind, kerr := models.ParseMonitorKind(kindParam)
		if kerr != nil {
			respondError(w, http.StatusBadRequest, kerr.Error())
			return
		}
		sellers, err = s.repo.GetByKind(kind)
	} else {
		sellers, err = s.repo.GetAll()
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load sellers")
		return
	}
	respondJSON(w, http.StatusOK, sellerViews(sellers))
}

type addSellerRequest struct {
	StoreName string `json:"store_name"`
	Handle    string `json:"handle"`
	Kind      string `json:"kind"`
}

func (s *Server) handleAddSeller(w http.ResponseWriter, r *http.Request) {
	var req addSellerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Handle = strings.TrimSpace(req.Handle)
	if req.Handle == "" {
		respondError(w, http.StatusBadRequest, "handle is required")
		return
	}
	kind, err := models.ParseMonitorKind(req.Kind)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	seller := models.TrackedSeller{
		StoreName:    strings.TrimSpace(req.StoreName),
		Handle:       req.Handle,
		Kind:         kind,
		KnownItemIDs: models.IDSet{},
		AddedAt:      time.Now(),
	}
	if err := s.repo.Add(seller); err != nil {
		if errors.Is(err, store.ErrSellerExists) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to add seller")
		return
	}

	s.scheduler.Trigger()
	respondJSON(w, http.StatusCreated, sellerView(seller))
}

func (s *Server) handleRemoveSeller(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	kind, err := models.ParseMonitorKind(chi.URLParam(r, "kind"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.repo.Remove(handle, kind); err != nil {
		if errors.Is(err, store.ErrSellerNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to remove seller")
		return
	}

	s.scheduler.Trigger()
	respondJSON(w, http.StatusOK, map[string]string{"removed": handle})
}

// handleCheckSeller runs the read-only probe: crawl and diff one
// seller, report counts, persist nothing, notify nobody.
func (s *Server) handleCheckSeller(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	kind, err := models.ParseMonitorKind(chi.URLParam(r, "kind"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	seller, err := s.repo.Get(handle, kind)
	if err != nil {
		if errors.Is(err, store.ErrSellerNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load seller")
		return
	}

	result, err := s.orchestrator.CheckSeller(r.Context(), seller)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// sellerViewModel is the JSON shape returned by the API; the known-id
// set itself is reduced to a count.
type sellerViewModel struct {
	StoreName     string     `json:"store_name"`
	Handle        string     `json:"handle"`
	Kind          string     `json:"kind"`
	KnownItems    int        `json:"known_items"`
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty"`
	AddedAt       time.Time  `json:"added_at"`
}

func sellerView(s models.TrackedSeller) sellerViewModel {
	return sellerViewModel{
		StoreName:     s.StoreName,
		Handle:        s.Handle,
		Kind:          string(s.Kind),
		KnownItems:    len(s.KnownItemIDs),
		LastCheckedAt: s.LastCheckedAt,
		AddedAt:       s.AddedAt,
	}
}

func sellerViews(sellers []models.TrackedSeller) []sellerViewModel {
	views := make([]sellerViewModel, 0, len(sellers))
	for _, s := range sellers {
		views = append(views, sellerView(s))
	}
	return views
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// requestID tags every request with a UUID for log correlation.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s (%s) %v", r.Method, r.URL.Path, w.Header().Get("X-Request-ID"), time.Since(start).Round(time.Millisecond))
	})
}
