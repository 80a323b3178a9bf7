// Package status serves a small read-only HTTP view of the running bot.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/keshon/commando/internal/chat"
	"github.com/keshon/commando/internal/command"
)

type Server struct {
	reg     *command.Registry
	stats   *Stats
	started time.Time
	router  *mux.Router
}

func New(reg *command.Registry, stats *Stats) *Server {
	s := &Server{reg: reg, stats: stats, started: time.Now()}
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.HandleFunc("/commands", s.commands).Methods(http.MethodGet)
	r.HandleFunc("/commands/{name}", s.command).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.statsHandler).Methods(http.MethodGet)
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Serve listens on addr until ctx is done.
func (s *Server) Serve(ctx context.Context, addr string) error {
	log.WithField("addr", addr).Info("[Status] starting server")
	srv := &http.Server{
		Handler:      s,
		Addr:         addr,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return fmt.Errorf("status server: %w", err)
	case <-ctx.Done():
	}

	log.Info("[Status] shutdown server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type commandView struct {
	Name              string   `json:"name"`
	Aliases           []string `json:"aliases,omitempty"`
	Group             string   `json:"group"`
	Description       string   `json:"description"`
	Format            string   `json:"format,omitempty"`
	GuildOnly         bool     `json:"guild_only"`
	OwnerOnly         bool     `json:"owner_only"`
	NSFW              bool     `json:"nsfw"`
	Guarded           bool     `json:"guarded"`
	Enabled           bool     `json:"enabled"`
	UserPermissions   []string `json:"user_permissions,omitempty"`
	ClientPermissions []string `json:"client_permissions,omitempty"`
}

func viewOf(c *command.Command) commandView {
	info := c.Info()
	return commandView{
		Name:              info.Name,
		Aliases:           info.Aliases,
		Group:             info.Group,
		Description:       info.Description,
		Format:            info.Format,
		GuildOnly:         info.GuildOnly,
		OwnerOnly:         info.OwnerOnly,
		NSFW:              info.NSFW,
		Guarded:           info.Guarded,
		Enabled:           c.IsEnabledIn(""),
		UserPermissions:   chat.PermissionList(info.UserPermissions),
		ClientPermissions: chat.PermissionList(info.ClientPermissions),
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) commands(w http.ResponseWriter, _ *http.Request) {
	cmds := s.reg.Commands()
	views := make([]commandView, 0, len(cmds))
	for _, c := range cmds {
		if c.Info().Hidden {
			continue
		}
		views = append(views, viewOf(c))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) command(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	found := s.reg.FindCommands(name, true)
	if len(found) != 1 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown command " + name})
		return
	}
	writeJSON(w, http.StatusOK, viewOf(found[0]))
}

func (s *Server) statsHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("[Status] write response: %v", err)
	}
}
