package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ziadkadry99/mindmap/internal/canvas"
	"github.com/ziadkadry99/mindmap/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// canvasEvent is the incoming WebSocket message format. Which fields are
// read depends on Type.
type canvasEvent struct {
	Type         string  `json:"type"`
	Tool         string  `json:"tool,omitempty"`
	Key          string  `json:"key,omitempty"`
	Action       string  `json:"action,omitempty"`
	InputFocused bool    `json:"input_focused,omitempty"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Text         string  `json:"text,omitempty"`
	Cancel       bool    `json:"cancel,omitempty"`
	Index        int     `json:"index"`
	Color        string  `json:"color,omitempty"`
	On           bool    `json:"on,omitempty"`
	Width        float64 `json:"width,omitempty"`
	Height       float64 `json:"height,omitempty"`
}

// canvasReply is the outgoing WebSocket message format.
type canvasReply struct {
	Type  string        `json:"type"` // "state" or "error"
	State *canvas.State `json:"state,omitempty"`
	Error string        `json:"error,omitempty"`
}

func canvasSocketHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := lookup(s, w, r)
		if !ok {
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Warn("canvas websocket upgrade", zap.Error(err))
			return
		}
		defer conn.Close()

		st := sess.Canvas(nil)
		if !s.send(conn, canvasReply{Type: "state", State: &st}) {
			return
		}

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Warn("canvas websocket read", zap.Error(err))
				}
				return
			}

			var ev canvasEvent
			if err := json.Unmarshal(msg, &ev); err != nil {
				s.send(conn, canvasReply{Type: "error", Error: "invalid message format"})
				continue
			}

			st, err := applyEvent(sess, ev)
			if err != nil {
				if !s.send(conn, canvasReply{Type: "error", Error: err.Error()}) {
					return
				}
				continue
			}
			if !s.send(conn, canvasReply{Type: "state", State: &st}) {
				return
			}
		}
	}
}

func (s *Server) send(conn *websocket.Conn, reply canvasReply) bool {
	if err := conn.WriteJSON(reply); err != nil {
		s.logger.Warn("canvas websocket write", zap.Error(err))
		return false
	}
	return true
}

// applyEvent runs one client event against the session's canvas.
func applyEvent(sess *session.Session, ev canvasEvent) (canvas.State, error) {
	p := canvas.Point{X: ev.X, Y: ev.Y}
	var apply func(e *canvas.Engine)

	switch ev.Type {
	case "tool":
		tool, err := canvas.ParseTool(ev.Tool)
		if err != nil {
			return canvas.State{}, err
		}
		apply = func(e *canvas.Engine) { e.SetTool(tool) }
	case "key":
		action := canvas.KeyDown
		if ev.Action == string(canvas.KeyUp) {
			action = canvas.KeyUp
		}
		apply = func(e *canvas.Engine) {
			e.HandleKey(canvas.KeyEvent{Key: ev.Key, Action: action, InputFocused: ev.InputFocused})
		}
	case "pointer_down":
		apply = func(e *canvas.Engine) { e.PointerDown(p) }
	case "pointer_move":
		apply = func(e *canvas.Engine) { e.PointerMove(p) }
	case "pointer_up":
		apply = func(e *canvas.Engine) { e.PointerUp() }
	case "text":
		apply = func(e *canvas.Engine) {
			if ev.Cancel {
				e.CancelText()
				return
			}
			e.SubmitText(ev.Text)
		}
	case "undo":
		apply = func(e *canvas.Engine) { e.Undo() }
	case "redo":
		apply = func(e *canvas.Engine) { e.Redo() }
	case "clear":
		apply = func(e *canvas.Engine) { e.Clear() }
	case "select":
		apply = func(e *canvas.Engine) { e.SelectAnnotationAt(ev.Index) }
	case "color":
		apply = func(e *canvas.Engine) { e.SetColor(ev.Color) }
	case "pan_hold":
		apply = func(e *canvas.Engine) { e.SetPanHold(ev.On) }
	case "resize":
		sess.SetScreen(ev.Width, ev.Height)
	case "state":
	default:
		return canvas.State{}, fmt.Errorf("unknown message type: %s", ev.Type)
	}
	return sess.Canvas(apply), nil
}
