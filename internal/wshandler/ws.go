package wshandler

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gofiber/contrib/websocket"

	"github.com/trustform/assessd/internal/events"
)

// JSONWsHandler streams workflow events of one organization to a websocket client.
type JSONWsHandler struct {
	log    *slog.Logger
	name   string
	org    string
	ws     *websocket.Conn
	ch     chan events.Event
	active int32
}

func NewHandler(log *slog.Logger, name, org string, ws *websocket.Conn) *JSONWsHandler {
	return &JSONWsHandler{
		log:    log.With("client", name),
		name:   name,
		org:    org,
		ws:     ws,
		ch:     make(chan events.Event, 10),
		active: 1,
	}
}

func (w *JSONWsHandler) IsActive() bool {
	return w != nil && atomic.LoadInt32(&w.active) == 1
}

func (w *JSONWsHandler) stop() {
	if atomic.CompareAndSwapInt32(&w.active, 1, 0) {
		close(w.ch)
		w.ws.Close()
	}
}

func (w *JSONWsHandler) writer() {
	for ev := range w.ch {
		if !w.IsActive() {
			return
		}

		if err := w.ws.WriteJSON(ev); err != nil {
			w.log.Debug("error on write", slog.Any("error", err))
		}
	}
}

func (w *JSONWsHandler) reader() {
	defer w.stop()

	for {
		_, _, err := w.ws.ReadMessage()

		if err != nil {
			w.log.Debug("error on read", slog.Any("error", err))

			return
		}
	}
}

// SendEvent queues an event for the client. Events of other organizations are skipped,
// a full queue drops the event. It returns false once the client is gone.
func (w *JSONWsHandler) SendEvent(ev events.Event) bool {
	if w == nil || !w.IsActive() {
		return false
	}

	if !Visible(w.org, ev) {
		return true
	}

	select {
	case w.ch <- ev:
	default:
	}

	return true
}

// Visible reports whether a subscriber of org may see ev. An empty org sees everything.
func Visible(org string, ev events.Event) bool {
	return org == "" || ev.OrganizationID == org
}

func (w *JSONWsHandler) closehandler(code int, text string) error {
	w.log.Info(fmt.Sprintf("closed with code %d, msg %s", code, text))
	w.stop()

	return nil
}

func (w *JSONWsHandler) Listen() {
	w.log.Debug("ws start")
	w.ws.SetCloseHandler(w.closehandler)

	go w.writer()
	w.reader()
	w.log.Debug("ws stop")
}
