// main.go - Standalone IP analysis demo server (synthetic data only)
//
// This is the self-contained prototype: no database, no Redis, no external
// providers. Every lookup is served by the deterministic generator, so the
// server works offline and always returns the same result for the same IP.
// The full service lives in cmd/api.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"net/netip"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"ipscope/internal/config"
	"ipscope/internal/domain/models"
	"ipscope/internal/domain/services"
)

// ============================================================================
// IN-MEMORY STORE
// ============================================================================

type analysisStore struct {
	mu       sync.RWMutex
	byIP     map[string][]*models.Analysis
	total    int
	lastSeen time.Time
}

var (
	store = &analysisStore{byIP: make(map[string][]*models.Analysis)}

	mockGen = services.NewMockGenerator(services.NewClassifier(config.ScoringConfig{}))
)

func (s *analysisStore) add(a *models.Analysis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byIP[a.IPAddress] = append([]*models.Analysis{a}, s.byIP[a.IPAddress]...)
	s.total++
	s.lastSeen = a.AnalyzedAt
}

func (s *analysisStore) history(ip string) []*models.Analysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byIP[ip]
}

// ============================================================================
// HANDLERS
// ============================================================================

type analyzeRequest struct {
	IP string `json:"ip"`
}

func handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ip := strings.TrimSpace(req.IP)
	if _, err := netip.ParseAddr(ip); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid IP address")
		return
	}

	analysis := mockGen.Generate(ip)
	analysis.AnalyzedAt = time.Now().UTC()
	store.add(analysis)

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"analysis": analysis,
		"cached":   false,
	})
}

func handleHistory(w http.ResponseWriter, r *http.Request) {
	ip := mux.Vars(r)["ip"]
	analyses := store.history(ip)

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"ip":       ip,
		"analyses": analyses,
		"count":    len(analyses),
	})
}

func handleStats(w http.ResponseWriter, r *http.Request) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"total":      store.total,
		"unique_ips": len(store.byIP),
		"last_seen":  store.lastSeen,
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"mode":   "synthetic",
	})
}

// ============================================================================
// HELPER FUNCTIONS
// ============================================================================

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ============================================================================
// MAIN
// ============================================================================

func main() {
	r := mux.NewRouter()

	r.HandleFunc("/health", handleHealth).Methods("GET")
	r.HandleFunc("/api/v1/analyze", handleAnalyze).Methods("POST")
	r.HandleFunc("/api/v1/ips/{ip}/history", handleHistory).Methods("GET")
	r.HandleFunc("/api/v1/stats", handleStats).Methods("GET")

	handler := corsMiddleware(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("IP analysis demo server starting on port %s (synthetic data only)", port)
	log.Fatal(server.ListenAndServe())
}
