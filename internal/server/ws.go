package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"tokenPlotter/internal/model"
	"tokenPlotter/internal/selection"
)

const (
	msgBase   = "base"
	msgQuotes = "quotes"

	framePlot  = "plot"
	frameError = "error"

	writeWait = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type wsMessage struct {
	Type    string   `json:"type"`
	Symbol  string   `json:"symbol,omitempty"`
	Symbols []string `json:"symbols,omitempty"`
}

type wsFrame struct {
	Type   string      `json:"type"`
	Base   string      `json:"base,omitempty"`
	Quotes []string    `json:"quotes,omitempty"`
	Plot   *model.Plot `json:"plot,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// session binds one websocket connection to one selection controller.
type session struct {
	conn   *websocket.Conn
	ctrl   *selection.Controller
	logger *zap.Logger

	writeMu  sync.Mutex
	seq      uint64
	lastSent uint64
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sess := &session{
		conn:   conn,
		ctrl:   s.app.NewController(s.cfg.Parallelism),
		logger: s.logger.With(zap.String("remote", r.RemoteAddr)),
	}
	sess.logger.Debug("websocket session opened")

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		conn.Close()
		sess.logger.Debug("websocket session closed")
	}()

	go sess.pingLoop(ctx, s.cfg.PingInterval)

	sess.ctrl.SetBase(ctx, s.defaultBase())
	sess.watch(ctx, sess.ctrl.SetQuotes(ctx, s.defaultQuotes()))

	sess.readLoop(ctx, s.cfg.PingInterval)
}

func (sess *session) readLoop(ctx context.Context, pingInterval time.Duration) {
	readTimeout := pingInterval * 2
	_ = sess.conn.SetReadDeadline(time.Now().Add(readTimeout))
	sess.conn.SetPongHandler(func(string) error {
		return sess.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		var msg wsMessage
		if err := sess.conn.ReadJSON(&msg); err != nil {
			if isJSONError(err) {
				sess.sendError(fmt.Errorf("invalid message: %w", err))
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				sess.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		_ = sess.conn.SetReadDeadline(time.Now().Add(readTimeout))

		switch msg.Type {
		case msgBase:
			sess.watch(ctx, sess.ctrl.SetBase(ctx, msg.Symbol))
		case msgQuotes:
			sess.watch(ctx, sess.ctrl.SetQuotes(ctx, msg.Symbols))
		default:
			sess.sendError(fmt.Errorf("unknown message type %q", msg.Type))
		}
	}
}

// watch pushes the outcome of p unless a later selection was made first.
func (sess *session) watch(ctx context.Context, p *selection.Pending) {
	sess.writeMu.Lock()
	sess.seq++
	seq := sess.seq
	sess.writeMu.Unlock()

	go func() {
		result, err := p.Wait(ctx)
		switch {
		case errors.Is(err, selection.ErrSuperseded), errors.Is(err, context.Canceled):
			return
		case err != nil:
			sess.send(seq, wsFrame{Type: frameError, Error: err.Error()})
		default:
			plot := result.Plot
			sess.send(seq, wsFrame{Type: framePlot, Base: result.Base, Quotes: result.Quotes, Plot: &plot})
		}
	}()
}

func (sess *session) sendError(err error) {
	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()
	sess.write(wsFrame{Type: frameError, Error: err.Error()})
}

func (sess *session) send(seq uint64, frame wsFrame) {
	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()
	if seq < sess.lastSent {
		return
	}
	sess.lastSent = seq
	sess.write(frame)
}

// write must be called with writeMu held.
func (sess *session) write(frame wsFrame) {
	_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := sess.conn.WriteJSON(frame); err != nil {
		sess.logger.Debug("websocket write failed", zap.Error(err))
	}
}

func (sess *session) pingLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sess.writeMu.Lock()
			err := sess.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			sess.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func isJSONError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
