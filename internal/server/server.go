// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"

	"healthai/internal/foodlog"
	"healthai/internal/gemini"
	"healthai/internal/models"
	"healthai/internal/onboarding"
	"healthai/internal/storage"
)

const (
	serverName    = "healthai"
	serverVersion = "1.0.0"
)

// shutdownTimeout bounds how long Stop waits for pending food log writes.
const shutdownTimeout = 10 * time.Second

type Config struct {
	Transport string
	Host      string
	Port      int
	DBPath    string
	Gemini    gemini.Config
}

// AI is the hosted model as seen by the tool handlers.
type AI interface {
	AnalyzeImage(ctx context.Context, imageBase64 string) (string, error)
	Chat(ctx context.Context, question string) (string, error)
}

type FoodServer struct {
	info       protocol.Implementation
	httpServer *http.Server
	storage    *storage.SQLiteStorage
	ai         AI
	foodLog    *foodlog.Store
	onboarding *onboarding.Flag
	config     *Config

	// analyzing is the single in-flight slot for image analysis.
	analyzing atomic.Bool

	mu        sync.RWMutex
	current   *models.NutritionRecord
	lastImage string
}

// TransportHTTP is the only transport the tool surface is served on.
const TransportHTTP = "http"

func NewFoodServer(cfg *Config) (*FoodServer, error) {
	switch cfg.Transport {
	case "", TransportHTTP:
	default:
		return nil, fmt.Errorf("unsupported transport %q (only %q is available)", cfg.Transport, TransportHTTP)
	}

	// Initialize database
	stor, err := storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	foodServer := newFoodServer(cfg, stor, gemini.NewClient(cfg.Gemini))

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	foodServer.httpServer = &http.Server{
		Addr:    addr,
		Handler: foodServer.routes(),
	}

	return foodServer, nil
}

func newFoodServer(cfg *Config, stor *storage.SQLiteStorage, ai AI) *FoodServer {
	s := &FoodServer{
		info: protocol.Implementation{
			Name:    serverName,
			Version: serverVersion,
		},
		storage:    stor,
		ai:         ai,
		foodLog:    foodlog.New(stor),
		onboarding: onboarding.NewFlag(stor),
		config:     cfg,
	}
	s.foodLog.Load(context.Background())
	log.Printf("Loaded %d food log entries", s.foodLog.Len())
	return s
}

func (s *FoodServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleHTTP)
	return mux
}

func (s *FoodServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "OK",
		"server": s.info,
		"tools":  toolNames(),
	})
}

func (s *FoodServer) handleHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Decode the MCP request
	var request protocol.CallToolRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	handler, ok := s.tools()[request.Name]
	if !ok {
		http.Error(w, fmt.Sprintf("Unknown tool: %s", request.Name), http.StatusNotFound)
		return
	}

	result, err := handler(r.Context(), &request)
	if errors.Is(err, errInvalidParams) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Printf("Tool %s failed: %v", request.Name, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Send response
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func (s *FoodServer) Start(ctx context.Context) error {
	log.Printf("Starting %s server on %s", s.info.Name, s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *FoodServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if s.httpServer != nil {
		errs = append(errs, s.httpServer.Shutdown(ctx))
	}
	if s.foodLog != nil {
		if err := s.foodLog.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("food log writes still pending: %w", err))
		}
	}
	if s.storage != nil {
		errs = append(errs, s.storage.Close())
	}
	return errors.Join(errs...)
}

func (s *FoodServer) createJSONResponse(data interface{}) (*protocol.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}

	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: string(jsonBytes),
			},
		},
	}, nil
}
