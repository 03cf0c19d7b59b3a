package server

import "net/http"

type apiRoute struct {
	Path    string
	Method  string
	Handler http.HandlerFunc
}

func (s *Server) routes() []apiRoute {
	return []apiRoute{
		{Path: "/health", Method: http.MethodGet, Handler: s.handleHealth},
		{Path: "/tokens", Method: http.MethodGet, Handler: s.handleTokens},
		{Path: "/traces", Method: http.MethodGet, Handler: s.handleTraces},
		{Path: "/chart.{format:png|svg}", Method: http.MethodGet, Handler: s.handleChart},
		{Path: "/ws", Method: http.MethodGet, Handler: s.handleWS},
	}
}

func (s *Server) serveRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()
	for _, r := range s.routes() {
		api.HandleFunc(r.Path, r.Handler).Methods(r.Method)
	}
}
