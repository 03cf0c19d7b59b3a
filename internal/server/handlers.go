package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"tokenPlotter/internal/model"
	"tokenPlotter/internal/render"
	"tokenPlotter/internal/selection"
)

var errBadRequest = errors.New("bad request")

type tokensBody struct {
	BaseOptions   []string `json:"base_options"`
	QuoteOptions  []string `json:"quote_options"`
	DefaultBase   string   `json:"default_base"`
	DefaultQuotes []string `json:"default_quotes"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"axis_len":  s.app.Axis.Len(),
	})
}

func (s *Server) handleTokens(w http.ResponseWriter, _ *http.Request) {
	catalog := s.app.Catalog()
	s.writeJSON(w, http.StatusOK, Response[tokensBody]{
		Data: tokensBody{
			BaseOptions:   catalog.BaseOptions(),
			QuoteOptions:  catalog.QuoteOptions(),
			DefaultBase:   s.defaultBase(),
			DefaultQuotes: s.defaultQuotes(),
		},
		Meta: Meta{Base: catalog.Reference()},
	})
}

func (s *Server) handleTraces(w http.ResponseWriter, r *http.Request) {
	result, err := s.resolve(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	meta := Meta{
		Base:       result.Base,
		Quotes:     result.Quotes,
		Title:      result.Plot.Title,
		YAxisLabel: result.Plot.YAxisLabel,
	}
	for _, trace := range result.Traces {
		if trace.Len() == 0 {
			continue
		}
		first, last := trace.Timestamps[0], trace.Timestamps[trace.Len()-1]
		if meta.FirstTs == 0 || first < meta.FirstTs {
			meta.FirstTs = first
		}
		if last > meta.LastTs {
			meta.LastTs = last
		}
	}

	s.writeJSON(w, http.StatusOK, Response[[]*model.Trace]{Data: result.Traces, Meta: meta})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	format, err := render.ParseFormat(mux.Vars(r)["format"])
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	width, err := intParam(r, "width")
	if err != nil {
		s.writeError(w, err)
		return
	}
	height, err := intParam(r, "height")
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.resolve(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var buf bytes.Buffer
	from, to := s.app.Window()
	opts := render.Options{Width: width, Height: height, Format: format, From: from, To: to}
	if err := render.Render(&buf, result.Plot, opts); err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// resolve runs a one-shot selection for the base and quote query parameters.
func (s *Server) resolve(r *http.Request) (selection.Result, error) {
	base := strings.TrimSpace(r.URL.Query().Get("base"))
	if base == "" {
		base = s.defaultBase()
	}
	quotes := quoteParams(r)
	if len(quotes) == 0 {
		quotes = s.defaultQuotes()
	}

	ctrl := s.app.NewController(s.cfg.Parallelism)
	ctrl.SetBase(r.Context(), base)
	return ctrl.SetQuotes(r.Context(), quotes).Wait(r.Context())
}

func quoteParams(r *http.Request) []string {
	var out []string
	for _, raw := range r.URL.Query()["quote"] {
		for _, item := range strings.Split(raw, ",") {
			item = strings.TrimSpace(item)
			if item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

func intParam(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", errBadRequest, key, raw)
	}
	return v, nil
}
