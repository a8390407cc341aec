// Package server hosts the atlas location API: JSON routes for the tree
// operations and a websocket feed of campaign mutation events.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/websocket"

	apperrors "github.com/westmarch/atlas/internal/platform/errors"
	"github.com/westmarch/atlas/internal/services/atlas/domain"
	"github.com/westmarch/atlas/internal/services/atlas/storage/sqlite"
)

// editingUserHeader attributes mutations on broadcast events. The value is
// opaque here; authentication happens upstream of this service.
const editingUserHeader = "X-Atlas-Editing-User"

const shutdownTimeout = 5 * time.Second

// Config holds the atlas server configuration.
type Config struct {
	HTTPAddr string
	DBPath   string
}

// Run opens the store, wires the service, and serves until ctx is done.
func Run(ctx context.Context, cfg Config) error {
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open location store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("atlas: close store: %v", err)
		}
	}()

	engine := domain.NewService(newDomainStoreAdapter(store))
	hub := newSubscriptionHub()
	service := NewLocationService(engine, hub)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: NewHandler(service, hub),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Printf("atlas: listening on %s", cfg.HTTPAddr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown atlas server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve atlas: %w", err)
	}
}

// NewHandler builds the atlas routes over one location service and hub.
func NewHandler(service *LocationService, hub *subscriptionHub) http.Handler {
	h := &handlers{service: service}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET /campaigns/{campaignID}/locations", h.handleListRoots)
	mux.HandleFunc("POST /campaigns/{campaignID}/locations", h.handleAddLocation)
	mux.HandleFunc("DELETE /campaigns/{campaignID}/locations", h.handleDeleteCampaign)
	mux.HandleFunc("POST /campaigns/{campaignID}/locations/move", h.handleMoveLocations)
	mux.HandleFunc("GET /campaigns/{campaignID}/locations/{locationID}", h.handleGetLocation)
	mux.HandleFunc("PATCH /campaigns/{campaignID}/locations/{locationID}", h.handleUpdateLocation)
	mux.HandleFunc("DELETE /campaigns/{campaignID}/locations/{locationID}", h.handleRemoveLocation)

	mux.Handle("GET /ws", websocket.Handler(func(conn *websocket.Conn) {
		handleWSConn(conn, hub)
	}))

	return mux
}

type handlers struct {
	service *LocationService
}

type addLocationRequest struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	ParentID    string                   `json:"parent_id"`
	Population  []domain.PopulationGroup `json:"population"`
	Tags        []string                 `json:"tags"`
}

type updateLocationRequest struct {
	Name        *string                   `json:"name"`
	Description *string                   `json:"description"`
	Population  *[]domain.PopulationGroup `json:"population"`
	Tags        *[]string                 `json:"tags"`
}

type moveLocationsRequest struct {
	NewParentID string   `json:"new_parent_id"`
	LocationIDs []string `json:"location_ids"`
}

type listRootsResponse struct {
	Locations []domain.LocationListItem `json:"locations"`
}

type changedRecordsResponse struct {
	Locations []domain.LocationRecord `json:"locations"`
}

func (h *handlers) handleListRoots(w http.ResponseWriter, r *http.Request) {
	roots, err := h.service.GetRootLocations(r.Context(), r.PathValue("campaignID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listRootsResponse{Locations: roots})
}

func (h *handlers) handleAddLocation(w http.ResponseWriter, r *http.Request) {
	var req addLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}
	view, err := h.service.AddLocation(r.Context(), r.Header.Get(editingUserHeader), domain.AddLocationInput{
		CampaignID:  r.PathValue("campaignID"),
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
		Population:  req.Population,
		Tags:        req.Tags,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *handlers) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetLocation(r.Context(), r.PathValue("campaignID"), r.PathValue("locationID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req updateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}
	view, err := h.service.UpdateLocation(r.Context(), r.Header.Get(editingUserHeader), domain.UpdateLocationInput{
		CampaignID:  r.PathValue("campaignID"),
		LocationID:  r.PathValue("locationID"),
		Name:        req.Name,
		Description: req.Description,
		Population:  req.Population,
		Tags:        req.Tags,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) handleRemoveLocation(w http.ResponseWriter, r *http.Request) {
	handling := domain.ParseChildHandling(strings.TrimSpace(r.URL.Query().Get("child_handling")))
	changed, err := h.service.RemoveLocation(r.Context(), r.Header.Get(editingUserHeader),
		r.PathValue("campaignID"), r.PathValue("locationID"), handling)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, changedRecordsResponse{Locations: changed})
}

func (h *handlers) handleMoveLocations(w http.ResponseWriter, r *http.Request) {
	var req moveLocationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}
	moved, err := h.service.MoveLocations(r.Context(), r.Header.Get(editingUserHeader),
		r.PathValue("campaignID"), req.NewParentID, req.LocationIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, changedRecordsResponse{Locations: moved})
}

func (h *handlers) handleDeleteCampaign(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCampaignLocations(r.Context(), r.PathValue("campaignID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("atlas: encode response: %v", err)
	}
}

func writeInvalidBody(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Code:    string(apperrors.CodeUnknown),
		Message: "invalid request body",
	})
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		writeJSON(w, 499, errorResponse{Code: string(apperrors.CodeCancelled), Message: "request cancelled"})
		return
	}

	code := apperrors.CodeUnknown
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		code = appErr.Code
	}
	status := apperrors.HTTPStatus(err, http.StatusInternalServerError)
	message := err.Error()
	if status == http.StatusInternalServerError {
		// Internal details stay in the logs.
		log.Printf("atlas: internal error: %v", err)
		message = "internal error"
	}
	writeJSON(w, status, errorResponse{Code: string(code), Message: message})
}
