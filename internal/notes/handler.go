package notes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/VietDinh95/Notes/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// Handler is the HTTP surface over the notes core. It holds the switchboard,
// never a specific adapter or service - the active service is re-fetched on
// every request, since switching stores produces a new service instance.
type Handler struct {
	switchboard *Switchboard
	metrics     *metrics.Manager
}

func NewHandler(switchboard *Switchboard, metrics *metrics.Manager) *Handler {
	return &Handler{
		switchboard: switchboard,
		metrics:     metrics,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/notes", handler.HandleList).Methods("GET")
	router.HandleFunc("/notes", handler.HandleCreate).Methods("POST", "OPTIONS")
	router.HandleFunc("/notes/search", handler.HandleSearch).Methods("GET")
	router.HandleFunc("/notes/stats", handler.HandleStatistics).Methods("GET")
	router.HandleFunc("/notes/{id}", handler.HandleUpdate).Methods("PUT", "OPTIONS")
	router.HandleFunc("/notes/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS")
	router.HandleFunc("/notes/store/switch/{mode}", handler.HandleSwitchStore).Methods("POST", "OPTIONS")
	router.HandleFunc("/notes/store/status", handler.HandleStoreStatus).Methods("GET")
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	notes, err := handler.switchboard.Service().GetAll(r.Context())
	if err != nil {
		log.Errorf("list notes: %s", err)
		writeError(w, err)
		return
	}
	writeNotes(w, notes)
}

func (handler *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := r.ParseForm(); err != nil {
		log.Errorf("add new note failed, parse form error: %s", err)
		http.Error(w, "parse form error", http.StatusBadRequest)
		return
	}

	note, err := handler.switchboard.Service().Create(
		r.Context(),
		r.Form.Get("title"),
		r.Form.Get("content"),
	)
	if err != nil {
		log.Errorf("failed to add new note: %s", err)
		writeError(w, err)
		return
	}

	handler.metrics.CounterNotesCreated.Inc()
	log.Printf("new note added: [%s]: %s", note.Title, note.ID)

	writeJSON(w, http.StatusCreated, note)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "PUT, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		log.Errorf("update note failed, parse form error: %s", err)
		http.Error(w, "parse form error", http.StatusBadRequest)
		return
	}

	service := handler.switchboard.Service()
	existing, err := service.Get(r.Context(), id)
	if err != nil {
		log.Errorf("update note %s, lookup: %s", id, err)
		writeError(w, err)
		return
	}
	if existing == nil {
		writeError(w, ErrNoteNotFound)
		return
	}

	updated, err := service.Update(
		r.Context(),
		*existing,
		r.Form.Get("title"),
		r.Form.Get("content"),
	)
	if err != nil {
		log.Errorf("failed to update note %s: %s", id, err)
		writeError(w, err)
		return
	}

	log.Printf("note updated: [%s]: %s", updated.Title, updated.ID)
	writeJSON(w, http.StatusOK, updated)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "DELETE, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	service := handler.switchboard.Service()
	existing, err := service.Get(r.Context(), id)
	if err != nil {
		log.Errorf("delete note %s, lookup: %s", id, err)
		writeError(w, err)
		return
	}
	if existing == nil {
		writeError(w, ErrNoteNotFound)
		return
	}

	if err := service.Delete(r.Context(), *existing); err != nil {
		log.Errorf("failed to delete note %s: %s", id, err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (handler *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	notes, err := handler.switchboard.Service().Search(r.Context(), query)
	if err != nil {
		log.Errorf("search notes [%s]: %s", query, err)
		writeError(w, err)
		return
	}

	handler.metrics.CounterNoteSearches.Inc()
	writeNotes(w, notes)
}

func (handler *Handler) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := handler.switchboard.Service().Statistics(r.Context())
	if err != nil {
		log.Errorf("note statistics: %s", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (handler *Handler) HandleSwitchStore(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	mode := StoreMode(mux.Vars(r)["mode"])

	var err error
	switch mode {
	case StoreModeLocal:
		err = handler.switchboard.UseLocal()
	case StoreModeRemote:
		err = handler.switchboard.UseRemote(r.Context())
	default:
		http.Error(w, "error, unknown store mode", http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Errorf("switch notes store to %s: %s", mode, err)
		writeError(w, err)
		return
	}

	handler.metrics.CounterStoreSwitches.WithLabelValues(string(mode)).Inc()
	writeJSON(w, http.StatusOK, map[string]string{"active": string(mode)})
}

func (handler *Handler) HandleStoreStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"active":         string(handler.switchboard.Mode()),
		"remote_account": handler.switchboard.AccountStatus(r.Context()).String(),
	})
}

func writeNotes(w http.ResponseWriter, notes []Note) {
	if notes == nil {
		notes = []Note{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notes": notes,
		"total": len(notes),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Errorf("failed to write response: %s", err)
	}
}

// writeError maps the error taxonomy to HTTP statuses; failures stay
// non-fatal and carry a dismissible message, never partial state.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNoteNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrInvalidNoteData):
		status = http.StatusBadRequest
	case errors.Is(err, ErrRemoteNotConfigured):
		status = http.StatusConflict
	case errors.Is(err, ErrContextUnavailable):
		status = http.StatusServiceUnavailable
	}

	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(map[string]string{"error": errorMessage(err)}); encErr != nil {
		log.Errorf("failed to write error response: %s", encErr)
	}
}

// errorMessage keeps raw store errors out of responses
func errorMessage(err error) string {
	for _, sentinel := range []error{
		ErrNoteNotFound, ErrInvalidNoteData, ErrRemoteNotConfigured,
		ErrContextUnavailable, ErrFetchFailed, ErrSearchFailed,
		ErrSaveFailed, ErrDeleteFailed,
	} {
		if errors.Is(err, sentinel) {
			if errors.Is(err, ErrInvalidNoteData) {
				// validation details are safe and useful to show
				return err.Error()
			}
			return sentinel.Error()
		}
	}
	return "internal server error"
}
