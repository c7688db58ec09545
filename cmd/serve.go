package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/jsphweid/mididf/analysis"
	"github.com/jsphweid/mididf/cache"
	"github.com/jsphweid/mididf/chord"
	"github.com/jsphweid/mididf/config"
	"github.com/jsphweid/mididf/midi"
	"github.com/jsphweid/mididf/model"
	"github.com/jsphweid/mididf/store"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves analyses over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cfg)
	},
}

type ErrorResponse struct {
	Error string `json:"detail"`
}

type AnalyzeResponse struct {
	*analysis.Result
	Warnings []string `json:"warnings"`
}

type AnalysisResponse struct {
	store.Analysis
	Intervals []model.IntervalCount `json:"intervals"`
}

type ChordCountResponse struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type Server struct {
	cfg   config.Config
	songs *cache.Cache
	store *store.Store
}

// NewServer wires the handlers. s may be nil, the stored analyses routes then
// answer 404.
func NewServer(c config.Config, songs *cache.Cache, s *store.Store) *Server {
	return &Server{cfg: c, songs: songs, store: s}
}

func (s *Server) Router() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/analyze", s.HandleAnalyze).Methods("POST")
	router.HandleFunc("/files/{name:.+}/analysis", s.HandleAnalyzeFile).Methods("GET")
	router.HandleFunc("/cache", s.HandlePurgeCache).Methods("DELETE")
	router.HandleFunc("/cache/{name:.+}", s.HandleInvalidateFile).Methods("DELETE")
	router.HandleFunc("/analyses", s.HandleListAnalyses).Methods("GET")
	router.HandleFunc("/analyses/{id}", s.HandleGetAnalysis).Methods("GET")
	router.HandleFunc("/chords/{key}", s.HandleCountChord).Methods("GET")

	return cors.New(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
	}).Handler(router)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("could not write response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func optionsFromQuery(r *http.Request, c config.Config) (analysis.Options, error) {
	opts := analysis.Options{
		TempoTrack:    c.Analysis.TempoTrack,
		ReduceOctaves: c.Analysis.ReduceOctaves,
	}
	q := r.URL.Query()
	if v := q.Get("tracks"); v != "" {
		for _, part := range strings.Split(v, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return opts, errors.Wrap(err, "bad tracks")
			}
			opts.Tracks = append(opts.Tracks, n)
		}
	}
	if v := q.Get("tempo_track"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, errors.Wrap(err, "bad tempo_track")
		}
		opts.TempoTrack = n
	}
	if v := q.Get("reduce"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.Wrap(err, "bad reduce")
		}
		opts.ReduceOctaves = b
	}
	return opts, nil
}

func (s *Server) respondWithAnalysis(w http.ResponseWriter, r *http.Request, song *model.Song) {
	opts, err := optionsFromQuery(r, s.cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := analysis.Analyze(song, opts)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, model.ErrEmptyTrack) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err)
		return
	}
	warnings := make([]string, 0, len(res.Anomalies))
	for _, a := range res.Anomalies {
		warnings = append(warnings, a.Error())
	}
	writeJSON(w, http.StatusOK, AnalyzeResponse{Result: res, Warnings: warnings})
}

// HandleAnalyze analyzes the midi file sent as request body.
func (s *Server) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes))
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, errors.Errorf("upload exceeds %d bytes", tooLarge.Limit))
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err)
		return
	}
	song, err := midi.Read(bytes.NewReader(data))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.respondWithAnalysis(w, r, song)
}

func (s *Server) mediaPath(name string) (string, error) {
	if s.cfg.Storage.MediaDir == "" {
		return "", errors.New("MEDIA_PATH is not set")
	}
	clean := filepath.Clean("/" + name)
	return filepath.Join(s.cfg.Storage.MediaDir, clean), nil
}

func (s *Server) HandleAnalyzeFile(w http.ResponseWriter, r *http.Request) {
	path, err := s.mediaPath(mux.Vars(r)["name"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	song, err := s.songs.Get(path)
	switch {
	case errors.Is(err, model.ErrFormat):
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	case err != nil:
		writeError(w, http.StatusNotFound, err)
		return
	}
	s.respondWithAnalysis(w, r, song)
}

func (s *Server) HandlePurgeCache(w http.ResponseWriter, r *http.Request) {
	s.songs.Purge()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HandleInvalidateFile(w http.ResponseWriter, r *http.Request) {
	path, err := s.mediaPath(mux.Vars(r)["name"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	s.songs.Invalidate(path)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HandleListAnalyses(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, errors.New("no database configured"))
		return
	}
	var limit int
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.Wrap(err, "bad limit"))
			return
		}
		limit = n
	}
	analyses, err := s.store.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if analyses == nil {
		analyses = []store.Analysis{}
	}
	writeJSON(w, http.StatusOK, analyses)
}

func (s *Server) HandleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, errors.New("no database configured"))
		return
	}
	id := mux.Vars(r)["id"]
	a, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	intervals, err := s.store.Intervals(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, AnalysisResponse{Analysis: a, Intervals: model.SortedIntervals(intervals)})
}

// HandleCountChord counts stored merged rows holding exactly the pitches of
// key, e.g. "60-64-67".
func (s *Server) HandleCountChord(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, errors.New("no database configured"))
		return
	}
	pitches, err := store.ParseChordKey(mux.Vars(r)["key"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	n, err := s.store.CountChord(r.Context(), pitches)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, ChordCountResponse{Key: chord.CreateChordKey(pitches), Count: n})
}

func serve(c config.Config) error {
	s, err := store.Open(c.Storage.DBPath)
	if err != nil {
		return err
	}
	defer s.Close()

	songs := cache.New(midi.ReadMidiFile, c.Storage.CacheSnapshot, 2*time.Second)
	srv := &http.Server{
		Addr:              c.Server.Addr,
		Handler:           NewServer(c, songs, s).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logrus.WithField("addr", c.Server.Addr).Info("serving")
	return srv.ListenAndServe()
}
