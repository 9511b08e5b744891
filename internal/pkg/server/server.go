// Package server exposes the admin HTTP API: enumerate entities, drive
// them, read their history and stream live state changes.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/anicoll/rako-integration/internal/pkg/database"
	"github.com/anicoll/rako-integration/internal/pkg/model"
)

// Entity is the adapter surface the API drives.
type Entity interface {
	UniqueID() string
	State() model.EntityState
	Apply(ctx context.Context, cmd model.Command) error
}

// Directory resolves entities by unique ID. Built in cmd from the
// devices file.
type Directory interface {
	Entities() []Entity
	Entity(uniqueID string) (Entity, bool)
}

// History reads past state snapshots.
type History interface {
	GetHistory(ctx context.Context, uniqueID string, from, to *time.Time) (database.StateRecords, error)
}

type server struct {
	directory Directory
	history   History
	events    *Hub
	tokenHash string
	logger    *zap.Logger
}

func New(directory Directory, history History, events *Hub, tokenHash string) *server {
	return &server{
		directory: directory,
		history:   history,
		events:    events,
		tokenHash: tokenHash,
		logger:    zap.L(),
	}
}

// Router assembles the chi mux with logging and token auth applied to
// every route.
func (s *server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.loggingMiddleware)
	r.Use(s.authMiddleware)

	r.Get("/entities", s.getEntities)
	r.Get("/entities/{uniqueID}", s.getEntity)
	r.Post("/entities/{uniqueID}/set", s.postEntitySet)
	r.Get("/entities/{uniqueID}/history", s.getEntityHistory)
	r.Get("/events", s.events.Serve)

	return r
}

func (s *server) getEntities(w http.ResponseWriter, r *http.Request) {
	entities := s.directory.Entities()
	states := make([]model.EntityState, 0, len(entities))
	for _, e := range entities {
		states = append(states, e.State())
	}
	writeJSON(w, states)
}

func (s *server) getEntity(w http.ResponseWriter, r *http.Request) {
	e, ok := s.directory.Entity(chi.URLParam(r, "uniqueID"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, e.State())
}

type setRequest struct {
	State      *string `json:"state,omitempty"`
	Brightness *uint8  `json:"brightness,omitempty"`
	Percentage *int    `json:"percentage,omitempty"`
}

func (s *server) postEntitySet(w http.ResponseWriter, r *http.Request) {
	e, ok := s.directory.Entity(chi.URLParam(r, "uniqueID"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	req, err := unmarshalPayload[setRequest](r)
	if err != nil {
		handleError(w, http.StatusBadRequest, err)
		return
	}

	cmd := model.Command{
		Brightness: req.Brightness,
		Percentage: req.Percentage,
	}
	if req.State != nil {
		on := *req.State == "ON" || *req.State == "on"
		cmd.State = &on
	}

	if err := e.Apply(r.Context(), cmd); err != nil {
		handleError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, e.State())
}

func (s *server) getEntityHistory(w http.ResponseWriter, r *http.Request) {
	uniqueID := chi.URLParam(r, "uniqueID")
	if _, ok := s.directory.Entity(uniqueID); !ok {
		http.NotFound(w, r)
		return
	}

	from, err := parseTimeParam(r, "from")
	if err != nil {
		handleError(w, http.StatusBadRequest, err)
		return
	}
	to, err := parseTimeParam(r, "to")
	if err != nil {
		handleError(w, http.StatusBadRequest, err)
		return
	}

	records, err := s.history.GetHistory(r.Context(), uniqueID, from, to)
	if err != nil {
		handleError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, records)
}

func parseTimeParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("failed to write response", zap.Error(err))
	}
}

func handleError(w http.ResponseWriter, status int, err error) {
	w.WriteHeader(status)
	w.Write([]byte(err.Error()))
}

func unmarshalPayload[T any](r *http.Request) (*T, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
