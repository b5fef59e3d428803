package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jsphweid/simon/constants"
	"github.com/jsphweid/simon/db"
	"github.com/jsphweid/simon/game"
	"github.com/jsphweid/simon/model"
	"github.com/jsphweid/simon/sample"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

const defaultScoresLimit = 10
const maxScoresLimit = 100

// finished sessions stay readable this long so clients can fetch the result
const sessionRetention = 10 * time.Minute

// sessions nobody touches for this long are ended
const sessionIdleTimeout = 5 * time.Minute

var (
	serveAddr string
	serveSeed int64
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default $SIMON_ADDR or :8080)")
	serveCmd.Flags().Int64Var(&serveSeed, "seed", 0, "fixed seed for note sequences, 0 for random")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves games over HTTP",
	Long:  `Serves games over HTTP. Browsers create a session, poll it for lit boxes and post presses.`,
	Run: func(cmd *cobra.Command, args []string) {
		cobra.CheckErr(serve())
	},
}

type handlers struct {
	manager *game.Manager
	scores  db.Store
}

// NewRouter exposes the session manager and score store over HTTP.
func NewRouter(manager *game.Manager, scores db.Store) http.Handler {
	h := &handlers{manager: manager, scores: scores}

	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/sessions", h.handleCreate).Methods("POST")
	router.HandleFunc("/sessions", h.handleList).Methods("GET")
	router.HandleFunc("/sessions/{id}", h.handleGet).Methods("GET")
	router.HandleFunc("/sessions/{id}", h.handleDelete).Methods("DELETE")
	router.HandleFunc("/sessions/{id}/press", h.handlePress).Methods("POST")
	router.HandleFunc("/sessions/{id}/midi", h.handleMidi).Methods("GET")
	router.HandleFunc("/scores", h.handleScores).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(router)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("could not write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, model.ErrorResponse{Error: detail})
}

func toSessionResponse(snap game.Snapshot) model.SessionResponse {
	return model.SessionResponse{
		ID:      snap.ID,
		Phase:   snap.Phase.String(),
		Level:   snap.Level,
		Score:   snap.Score,
		Pressed: snap.Pressed,
		Active:  snap.Active,
		Played:  snap.Played,
		Reason:  snap.Reason,
	}
}

func (h *handlers) session(w http.ResponseWriter, r *http.Request) (*game.Session, bool) {
	id := mux.Vars(r)["id"]
	s, ok := h.manager.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "No session with id "+id)
	}
	return s, ok
}

func (h *handlers) handleCreate(w http.ResponseWriter, r *http.Request) {
	s, err := h.manager.Create()
	if err != nil {
		logger.Error("could not create session", "err", err)
		writeError(w, http.StatusInternalServerError, "Could not create session")
		return
	}
	if err := s.Start(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toSessionResponse(s.Snapshot()))
}

func (h *handlers) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.SessionListResponse{IDs: h.manager.List()})
}

func (h *handlers) handleGet(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(s.Snapshot()))
}

func (h *handlers) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s, ok := h.manager.Remove(id)
	if !ok {
		writeError(w, http.StatusNotFound, "No session with id "+id)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(s.Snapshot()))
}

func (h *handlers) handlePress(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var input model.PressRequestBody
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Could not unmarshal request body: "+err.Error())
		return
	}

	err := s.Press(input.Key)
	if errors.Is(err, game.ErrUnknownKey) {
		writeError(w, http.StatusBadRequest, "Unknown key: "+string(input.Key))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(s.Snapshot()))
}

// handleMidi serves the last round's notes as a MIDI file once the game is over.
func (h *handlers) handleMidi(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	snap := s.Snapshot()
	if snap.Phase != game.GameOver {
		writeError(w, http.StatusConflict, "Notes are only available once the game is over")
		return
	}

	var buf bytes.Buffer
	if err := sample.Write(&buf, snap.Played, s.NoteDuration()); err != nil {
		logger.Error("could not write midi", "session", snap.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "Could not write midi")
		return
	}
	w.Header().Set("Content-Type", "audio/midi")
	w.Header().Set("Content-Disposition", `attachment; filename="`+snap.ID+`.mid"`)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.Error("could not write response", "err", err)
	}
}

func (h *handlers) handleScores(w http.ResponseWriter, r *http.Request) {
	limit := defaultScoresLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > maxScoresLimit {
		limit = maxScoresLimit
	}

	scores, err := h.scores.Top(r.Context(), limit)
	if err != nil {
		logger.Error("could not read scores", "err", err)
		writeError(w, http.StatusInternalServerError, "Could not read scores")
		return
	}
	if scores == nil {
		scores = []model.Score{}
	}
	writeJSON(w, http.StatusOK, scores)
}

func serve() error {
	addr := serveAddr
	if addr == "" {
		addr = constants.GetAddr()
	}

	scores, err := openScoreStore()
	if err != nil {
		return err
	}
	factory := NewSessionFactory(SessionOptions{
		NoteDuration: constants.GetNoteDuration(),
		StartLevel:   constants.GetStartLevel(),
		Seed:         serveSeed,
		Logger:       logger,
	})
	manager := game.NewManager(factory, scores, game.ManagerConfig{
		Retention:   sessionRetention,
		IdleTimeout: sessionIdleTimeout,
		Logger:      logger,
	})

	srv := &http.Server{Addr: addr, Handler: NewRouter(manager, scores)}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		manager.EndAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("could not shut down cleanly", "err", err)
		}
	}()

	logger.Info("listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
