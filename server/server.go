// Package server is the HTTP backend of the browser editor.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"time"

	"modpack-editor/modpack"
	"modpack-editor/roster"
	"modpack-editor/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

//go:embed static
var staticFiles embed.FS

// StateStore remembers the last pack opened so the next run can restore it.
type StateStore interface {
	SetLastOpened(folder string) error
}

// Server serves the editor API and its static frontend.
type Server struct {
	Session  *session.Session
	Resolver session.Resolver
	Names    modpack.FileNameResolver
	State    StateStore
	Log      *zap.SugaredLogger
}

// New returns a server editing sess. state may be nil.
func New(sess *session.Session, resolver session.Resolver, names modpack.FileNameResolver, state StateStore, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Server{Session: sess, Resolver: resolver, Names: names, State: state, Log: log}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/ajax", func(r chi.Router) {
		r.Get("/getCurrentPackDetails", s.getCurrentPackDetails)
		r.Post("/loadModpackFolder", s.loadModpackFolder)
		r.Post("/createModpackFolder", s.createModpackFolder)
		r.Post("/reloadModpack", s.reloadModpack)
		r.Get("/getModInfoList", s.getModInfoList)
		r.Post("/saveModpack", s.saveModpack)
		r.Get("/roster", s.getRoster)
		r.Post("/roster/{action}", s.rosterAction)
		r.Get("/manifest", s.getManifest)
	})

	static, _ := fs.Sub(staticFiles, "static")
	r.Handle("/*", http.FileServer(http.FS(static)))
	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Log.Info("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.Log.Infow("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

type folderRequest struct {
	Folder string
}

type packResponse struct {
	Modpack *modpack.Modpack
}

type rosterRequest struct {
	Key roster.Key
}

type rosterResponse struct {
	Rerender bool
	Rows     []roster.Row
}

func (s *Server) getCurrentPackDetails(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, packResponse{Modpack: s.Session.Current()})
}

func (s *Server) loadModpackFolder(w http.ResponseWriter, r *http.Request) {
	var req folderRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	pack, err := s.Session.Load(r.Context(), req.Folder, s.Resolver)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.rememberFolder(pack.Folder)
	s.writeJSON(w, http.StatusOK, packResponse{Modpack: pack})
}

func (s *Server) createModpackFolder(w http.ResponseWriter, r *http.Request) {
	var req folderRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	pack, err := s.Session.Create(req.Folder)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.rememberFolder(pack.Folder)
	s.writeJSON(w, http.StatusOK, packResponse{Modpack: pack})
}

func (s *Server) reloadModpack(w http.ResponseWriter, r *http.Request) {
	pack, err := s.Session.Reload(r.Context(), s.Resolver)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, packResponse{Modpack: pack})
}

func (s *Server) getModInfoList(w http.ResponseWriter, r *http.Request) {
	mods, err := s.Session.Mods(r.Context(), s.Resolver)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, mods)
}

func (s *Server) saveModpack(w http.ResponseWriter, r *http.Request) {
	var req packResponse
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Modpack == nil {
		s.writeError(w, errors.New("no modpack given"))
		return
	}
	if req.Modpack.Folder == "" {
		current := s.Session.Current()
		if current == nil {
			s.writeError(w, session.ErrNoPack)
			return
		}
		req.Modpack.Folder = current.Folder
	}

	s.Session.Update(req.Modpack)
	if err := s.Session.Save(r.Context(), s.Names); err != nil {
		s.writeError(w, err)
		return
	}
	s.Log.Infow("Saved modpack", zap.String("folder", req.Modpack.Folder))
	s.writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) getRoster(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, rosterResponse{Rows: s.Session.Rows()})
}

func (s *Server) rosterAction(w http.ResponseWriter, r *http.Request) {
	var req rosterRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	action := session.Action(chi.URLParam(r, "action"))
	rerender, rows, err := s.Session.Apply(action, req.Key)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rosterResponse{Rerender: rerender, Rows: rows})
}

func (s *Server) getManifest(w http.ResponseWriter, r *http.Request) {
	pack := s.Session.Current()
	if pack == nil {
		s.writeError(w, session.ErrNoPack)
		return
	}
	data, err := pack.CurseManifest.MarshalIndent()
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err != nil {
		s.Log.Warnw("Failed to write response", zap.String("path", r.URL.Path), zap.Error(err))
	}
}

func (s *Server) rememberFolder(folder string) {
	if s.State == nil {
		return
	}
	if err := s.State.SetLastOpened(folder); err != nil {
		s.Log.Warnw("Failed to remember last opened modpack", zap.String("folder", folder), zap.Error(err))
	}
}

// decodeBody reads a JSON request body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.Log.Warnw("Request failed", zap.Error(err))
	s.writeJSON(w, http.StatusBadRequest, struct {
		ErrorMessage string
	}{err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Log.Warnw("Failed to write response", zap.Int("status", status), zap.Error(err))
	}
}
