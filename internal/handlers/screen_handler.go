package handlers

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strings"
	"time"

	"codescan/internal/barcode"
	"codescan/internal/models"
	"codescan/internal/scanner"
	"codescan/internal/services"
	"codescan/internal/viewstate"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// wsInbound is an intent sent by a screen client
type wsInbound struct {
	Type       string `json:"type"`
	Content    string `json:"content,omitempty"`
	Mode       string `json:"mode,omitempty"`
	Format     string `json:"format,omitempty"`
	RecordType string `json:"record_type,omitempty"`
	ID         int64  `json:"id,omitempty"`
	Granted    bool   `json:"granted,omitempty"`
	Symbology  int    `json:"symbology,omitempty"`
	RawValue   string `json:"raw_value,omitempty"`
}

type wsOutbound struct {
	Type    string      `json:"type"`
	State   interface{} `json:"state,omitempty"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
}

// invalidArgument marks an intent the client got wrong
type invalidArgument struct{ err error }

func (e invalidArgument) Error() string { return e.err.Error() }
func (e invalidArgument) Unwrap() error { return e.err }

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return invalidArgument{err: err}
}

func unsupported(t string) error {
	return invalidArgument{err: fmt.Errorf("unsupported type: %s", t)}
}

// ScreenHandler serves the scan, generate and history screens over websockets.
// Each connection owns its own controller; it is closed with the connection.
type ScreenHandler struct {
	sessions *scanner.Manager
	codes    *services.CodeService
	history  *services.HistoryService
	log      zerolog.Logger
}

func NewScreenHandler(sessions *scanner.Manager, codes *services.CodeService, historySvc *services.HistoryService, log zerolog.Logger) *ScreenHandler {
	return &ScreenHandler{sessions: sessions, codes: codes, history: historySvc, log: log}
}

// ScanScreen mirrors a scan session. Leaving the screen suspends the session.
func (h *ScreenHandler) ScanScreen(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	c := viewstate.NewScanController(session)
	defer c.Close()
	defer session.Suspend()

	if err := session.Resume(); err != nil {
		writeDomainError(w, err)
		return
	}

	serveScreen(w, r, h.log, c.Subscribe,
		func(st viewstate.ScanState) interface{} { return st },
		func(ctx context.Context, in wsInbound) error {
			switch in.Type {
			case "continue":
				c.Continue()
			case "dismiss":
				c.Dismiss()
			case "suspend":
				c.Suspend()
			case "resume":
				return c.Resume()
			case "permission":
				return c.OnPermissionResult(in.Granted)
			case "detection":
				format, codeType := barcode.ClassifyMLKit(in.Symbology)
				c.Detect(models.ScanResult{Content: in.RawValue, Type: codeType, Format: format})
			default:
				return unsupported(in.Type)
			}
			return nil
		})
}

type generateView struct {
	viewstate.GenerateState
	Image          string              `json:"image,omitempty"`
	BarcodeFormats []models.CodeFormat `json:"barcode_formats"`
}

func (h *ScreenHandler) GenerateScreen(w http.ResponseWriter, r *http.Request) {
	c := viewstate.NewGenerateController(h.codes, h.history, h.log)
	defer c.Close()

	images := newDataURLCache()
	serveScreen(w, r, h.log, c.Subscribe,
		func(st viewstate.GenerateState) interface{} {
			return generateView{GenerateState: st, Image: images.get(st.Image), BarcodeFormats: viewstate.BarcodeFormats}
		},
		func(ctx context.Context, in wsInbound) error {
			switch in.Type {
			case "set_content":
				c.SetContent(in.Content)
			case "set_mode":
				return invalid(c.SetMode(viewstate.GenerateMode(strings.ToUpper(in.Mode))))
			case "set_barcode_format":
				f, err := models.ParseCodeFormat(in.Format)
				if err != nil {
					return invalid(err)
				}
				return invalid(c.SetBarcodeFormat(f))
			case "generate":
				c.Generate()
			case "clear_result":
				c.ClearResult()
			case "dismiss_result":
				c.DismissResult()
			default:
				return unsupported(in.Type)
			}
			return nil
		})
}

type historyView struct {
	viewstate.HistoryState
	Image string `json:"image,omitempty"`
}

func (h *ScreenHandler) HistoryScreen(w http.ResponseWriter, r *http.Request) {
	c, err := viewstate.NewHistoryController(h.history, h.codes, h.log)
	if err != nil {
		h.log.Error().Err(err).Msg("open history screen")
		writeError(w, http.StatusInternalServerError, "Failed to get history")
		return
	}
	defer c.Close()

	images := newDataURLCache()
	serveScreen(w, r, h.log, c.Subscribe,
		func(st viewstate.HistoryState) interface{} {
			return historyView{HistoryState: st, Image: images.get(st.Image)}
		},
		func(ctx context.Context, in wsInbound) error {
			switch in.Type {
			case "select_tab":
				rt, err := models.ParseRecordType(in.RecordType)
				if err != nil {
					return invalid(err)
				}
				return invalid(c.SelectTab(rt))
			case "delete":
				record, err := h.findRecord(ctx, c.State(), in.ID)
				if err != nil {
					return err
				}
				return c.Delete(record)
			case "show_clear_confirm":
				c.ShowClearConfirm()
			case "dismiss_clear_confirm":
				c.DismissClearConfirm()
			case "clear_history":
				return c.ClearHistory()
			case "select_record":
				record, err := h.findRecord(ctx, c.State(), in.ID)
				if err != nil {
					return err
				}
				c.SelectRecord(record)
			case "dismiss_record_detail":
				c.DismissRecordDetail()
			default:
				return unsupported(in.Type)
			}
			return nil
		})
}

// findRecord looks in the lists on screen before asking the store
func (h *ScreenHandler) findRecord(ctx context.Context, st viewstate.HistoryState, id int64) (models.CodeRecord, error) {
	for _, list := range [][]models.CodeRecord{st.ScanHistory, st.GenerateHistory} {
		for _, r := range list {
			if r.ID == id {
				return r, nil
			}
		}
	}
	return h.history.Get(ctx, id)
}

// dataURLCache encodes an image once and reuses the data URL while it is unchanged
type dataURLCache struct {
	img *image.Paletted
	url string
}

func newDataURLCache() *dataURLCache {
	return &dataURLCache{}
}

func (c *dataURLCache) get(img *image.Paletted) string {
	if img == nil {
		return ""
	}
	if img != c.img {
		url, err := services.DataURL(img)
		if err != nil {
			return ""
		}
		c.img, c.url = img, url
	}
	return c.url
}

// serveScreen upgrades the connection, pushes every state the screen
// publishes and hands client intents to handle until the client goes away.
func serveScreen[T any](
	w http.ResponseWriter,
	r *http.Request,
	log zerolog.Logger,
	subscribe func(context.Context) <-chan T,
	view func(T) interface{},
	handle func(context.Context, wsInbound) error,
) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		log.Warn().Err(err).Msg("ws set read deadline")
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	writeCh := make(chan wsOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(wsPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	go func() {
		for st := range subscribe(ctx) {
			pushWS(writeCh, wsOutbound{Type: "state", State: view(st)})
		}
	}()

	for {
		var in wsInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		in.Type = strings.ToLower(strings.TrimSpace(in.Type))
		switch in.Type {
		case "":
			pushWS(writeCh, wsOutbound{Type: "error", Code: "invalid_argument", Message: "type is required"})
			continue
		case "ping":
			pushWS(writeCh, wsOutbound{Type: "pong"})
			continue
		}

		if err := handle(ctx, in); err != nil {
			pushWS(writeCh, wsOutbound{Type: "error", Code: errorCode(err), Message: err.Error()})
		}
	}
}

func errorCode(err error) string {
	var bad invalidArgument
	if errors.As(err, &bad) {
		return "invalid_argument"
	}
	switch statusFor(err) {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusInternalServerError:
		return "internal"
	default:
		return "invalid_argument"
	}
}

// pushWS queues out, dropping the oldest queued message when the writer is behind
func pushWS(writeCh chan wsOutbound, out wsOutbound) {
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
