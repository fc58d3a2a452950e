// Package web 演示页面
// 提供一个轮询对局状态的小页面和两个只读 JSON 接口
// 所有写操作都走聊天路径，这里只读
package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/play/uno/pkg/room"
	"github.com/play/uno/pkg/uno"
)

// Server 演示服务
type Server struct {
	r     *chi.Mux
	rooms *room.Manager
}

// New 创建演示服务并注册路由
func New(rooms *room.Manager) *Server {
	s := &Server{r: chi.NewRouter(), rooms: rooms}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(requestLogger)

	s.r.Get("/", s.handleIndex)
	s.r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/rooms/{session}", s.handleState)
	s.r.Get("/rooms/{session}/hand", s.handleHand)

	return s
}

// ServeHTTP 实现 http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.r.ServeHTTP(w, r)
}

// requestLogger 记录每个请求的方法、路径和耗时
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleIndex 返回演示页面
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

// handleState 返回对局的公开视图，手牌只给数量
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	session := chi.URLParam(r, "session")
	rm, err := s.rooms.Get(session)
	if err != nil {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}

	var state uno.PublicState
	_ = rm.Do(func(g *uno.Game) error {
		state = g.PublicState()
		return nil
	})
	writeJSON(w, http.StatusOK, state)
}

// handleHand 返回指定玩家的手牌
// 演示接口，没有鉴权，player 参数直接指定玩家
func (s *Server) handleHand(w http.ResponseWriter, r *http.Request) {
	session := chi.URLParam(r, "session")
	player := r.URL.Query().Get("player")
	if player == "" {
		writeError(w, http.StatusBadRequest, "missing player parameter")
		return
	}

	rm, err := s.rooms.Get(session)
	if err != nil {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}

	var hand uno.Cards
	err = rm.Do(func(g *uno.Game) error {
		var err error
		hand, err = g.PlayerHand(player)
		return err
	})
	if err != nil {
		writeError(w, http.StatusNotFound, "player not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"player": player, "hand": hand})
}
