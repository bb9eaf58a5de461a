package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/siacavazzi/amogus-sonos-connector/internal/domain"
	"go.uber.org/zap"
)

// SessionSource exposes the session state
type SessionSource interface {
	Snapshot() domain.SessionSnapshot
}

// GroupSource exposes the playback group state
type GroupSource interface {
	Ready() bool
	Leader() domain.Device
	Members() []domain.Device
	LoopActive() bool
}

// volumeTimeout bounds the leader volume read made by /status
const volumeTimeout = 2 * time.Second

// modeler is implemented by devices that know their hardware model
type modeler interface {
	Model() string
}

type speakerView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Model   string `json:"model,omitempty"`
	Leader  bool   `json:"leader"`
	Volume  *int   `json:"volume,omitempty"`
}

type statusView struct {
	Session    domain.SessionSnapshot `json:"session"`
	Ready      bool                   `json:"ready"`
	LoopActive bool                   `json:"loop_active"`
	Speakers   []speakerView          `json:"speakers"`
}

// Handler serves the health and status endpoints
type Handler struct {
	logger  *zap.Logger
	session SessionSource
	group   GroupSource
}

// NewHandler creates a handler over the session and playback group state
func NewHandler(logger *zap.Logger, session SessionSource, group GroupSource) *Handler {
	return &Handler{
		logger:  logger,
		session: session,
		group:   group,
	}
}

// Healthz reports healthy when the speakers are ready and the server is connected
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if !h.group.Ready() || !h.session.Snapshot().Connected {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("unhealthy"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("healthy"))
}

// Status returns the session and speaker state as JSON
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	view := statusView{
		Session:    h.session.Snapshot(),
		Ready:      h.group.Ready(),
		LoopActive: h.group.LoopActive(),
		Speakers:   []speakerView{},
	}

	leader := h.group.Leader()
	for _, d := range h.group.Members() {
		sv := speakerView{
			ID:      d.ID(),
			Name:    d.Name(),
			Address: d.Address(),
			Leader:  leader != nil && d.ID() == leader.ID(),
		}
		if m, ok := d.(modeler); ok {
			sv.Model = m.Model()
		}
		if sv.Leader && view.Ready {
			sv.Volume = h.leaderVolume(r.Context(), d)
		}
		view.Speakers = append(view.Speakers, sv)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(view); err != nil {
		h.logger.Warn("Failed to write status response", zap.Error(err))
	}
}

// leaderVolume reads the group volume, nil when the leader does not answer
func (h *Handler) leaderVolume(ctx context.Context, leader domain.Device) *int {
	ctx, cancel := context.WithTimeout(ctx, volumeTimeout)
	defer cancel()

	v, err := leader.Volume(ctx)
	if err != nil {
		h.logger.Debug("Failed to read leader volume", zap.String("speaker", leader.Name()), zap.Error(err))
		return nil
	}
	return &v
}

// SetupRoutes configures all API routes
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", h.Healthz).Methods("GET")
	router.HandleFunc("/status", h.Status).Methods("GET")

	return router
}
