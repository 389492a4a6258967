package server

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ReplyDesk/internal/apierror"
	"ReplyDesk/internal/desk"
	"ReplyDesk/internal/live"
)

const (
	liveReadLimit    = 1 << 20
	liveWriteTimeout = 5 * time.Second
	micBuffer        = 32
)

// Client → server control frames. Audio arrives as binary frames of
// little-endian float32 samples.
type liveClientMessage struct {
	Type       string `json:"type"`
	Microphone string `json:"microphone,omitempty"`
}

// Server → client frames.
type liveServerMessage struct {
	Type    string                 `json:"type"`
	State   live.State             `json:"state,omitempty"`
	Message string                 `json:"message,omitempty"`
	Entries []live.TranscriptEntry `json:"entries,omitempty"`
}

// liveAudioMessage carries base64 PCM16 with its start time and length in
// seconds on the output clock.
type liveAudioMessage struct {
	Type     string  `json:"type"`
	Data     string  `json:"data"`
	StartAt  float64 `json:"start_at"`
	Duration float64 `json:"duration"`
}

// liveHandler handles /live websocket sessions. Each connection drives its
// own live.Session with the browser as microphone and speaker.
type liveHandler struct {
	cfg            live.Config
	connector      live.Connector
	notices        *desk.NoticeBoard
	allowedOrigins string
	logger         *slog.Logger
}

func (h *liveHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range strings.Split(h.allowedOrigins, ",") {
		if o = strings.TrimSpace(o); o == "*" || o == origin {
			return true
		}
	}
	return false
}

func (h *liveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := loggerFrom(r.Context(), h.logger)

	upgrader := websocket.Upgrader{CheckOrigin: h.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(liveReadLimit)

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	peer := &wsPeer{conn: conn, logger: logger}
	devices := &wsDevices{peer: peer}
	sess := live.NewSession(h.cfg, devices, h.connector, &wsObserver{peer: peer, notices: h.notices}, logger)

	// starts tracks in-flight Start calls; they must settle before the
	// final Stop so nothing they acquire outlives the connection.
	var starts sync.WaitGroup
	defer func() {
		cancel()
		starts.Wait()
		sess.Stop()
		if err := sess.Wait(); err != nil {
			logger.Warn("live session duties failed", "error", err)
		}
	}()

	peer.send(statusFrame(sess.Status()))
	logger.Info("live client connected")

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("live client read failed", "error", err)
			}
			return
		}

		switch mt {
		case websocket.BinaryMessage:
			devices.push(decodeFloat32(data))

		case websocket.TextMessage:
			var msg liveClientMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				peer.send(liveServerMessage{Type: "error", Message: "invalid control frame"})
				continue
			}
			switch msg.Type {
			case "start":
				devices.setPermission(msg.Microphone != "denied")
				starts.Add(1)
				go func() {
					defer starts.Done()
					if err := sess.Start(ctx); err != nil && !errors.Is(err, live.ErrStopped) {
						logger.Warn("live session did not start", "error", err)
					}
				}()
			case "stop":
				sess.Stop()
			default:
				peer.send(liveServerMessage{Type: "error", Message: "unknown control frame"})
			}
		}
	}
}

func statusFrame(st live.Status) liveServerMessage {
	return liveServerMessage{Type: "status", State: st.State, Message: st.Message}
}

func decodeFloat32(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return out
}

// wsPeer serializes writes to one websocket connection.
type wsPeer struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	logger *slog.Logger
}

func (p *wsPeer) send(msg any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
	if err := p.conn.WriteJSON(msg); err != nil {
		p.logger.Debug("live client write failed", "error", err)
	}
}

// wsObserver forwards session changes to the client. Quota notices are
// also raised on the desk.
type wsObserver struct {
	peer    *wsPeer
	notices *desk.NoticeBoard
}

func (o *wsObserver) StatusChanged(st live.Status) {
	o.peer.send(statusFrame(st))
}

func (o *wsObserver) TranscriptChanged(entries []live.TranscriptEntry) {
	if entries == nil {
		entries = []live.TranscriptEntry{}
	}
	o.peer.send(liveServerMessage{Type: "transcript", Entries: entries})
}

func (o *wsObserver) QuotaExceeded(notice string) {
	o.notices.RaiseNotice(notice)
	o.peer.send(liveServerMessage{Type: "notice", Message: notice})
}

// wsDevices exposes the browser as the session's audio hardware.
type wsDevices struct {
	peer *wsPeer

	mu      sync.Mutex
	granted bool
	mic     *wsMicrophone
}

func (d *wsDevices) setPermission(granted bool) {
	d.mu.Lock()
	d.granted = granted
	d.mu.Unlock()
}

func (d *wsDevices) OpenMicrophone(context.Context) (live.Microphone, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.granted {
		return nil, apierror.ErrPermissionDenied
	}
	d.mic = &wsMicrophone{samples: make(chan []float32, micBuffer), done: make(chan struct{})}
	return d.mic, nil
}

func (d *wsDevices) OpenAudioOut(context.Context, int) (live.AudioOut, error) {
	return &wsAudioOut{peer: d.peer, start: time.Now()}, nil
}

// push hands captured samples to the open microphone, if any.
func (d *wsDevices) push(samples []float32) {
	d.mu.Lock()
	mic := d.mic
	d.mu.Unlock()
	if mic != nil && len(samples) > 0 {
		mic.push(samples)
	}
}

type wsMicrophone struct {
	samples chan []float32
	done    chan struct{}
	once    sync.Once
}

func (m *wsMicrophone) Samples() <-chan []float32 { return m.samples }

// push drops the block when the consumer is behind.
func (m *wsMicrophone) push(samples []float32) {
	select {
	case <-m.done:
	case m.samples <- samples:
	default:
	}
}

func (m *wsMicrophone) Close() error {
	m.once.Do(func() { close(m.done) })
	return nil
}

// wsAudioOut ships model audio to the client with its start time on the
// output clock. The client plays it; the server only tracks when each chunk
// will have finished.
type wsAudioOut struct {
	peer  *wsPeer
	start time.Time
}

func (o *wsAudioOut) Now() time.Duration { return time.Since(o.start) }

func (o *wsAudioOut) Play(c live.Chunk, at time.Duration) (live.Playback, error) {
	o.peer.send(liveAudioMessage{
		Type:     "audio",
		Data:     base64.StdEncoding.EncodeToString(c.PCM),
		StartAt:  at.Seconds(),
		Duration: c.Duration.Seconds(),
	})

	pb := &timedPlayback{done: make(chan struct{})}
	pb.timer = time.AfterFunc(max(at+c.Duration-o.Now(), 0), pb.finish)
	return pb, nil
}

// Close tells the client to drop whatever it still has queued.
func (o *wsAudioOut) Close() error {
	o.peer.send(liveServerMessage{Type: "audio_stop"})
	return nil
}

type timedPlayback struct {
	timer *time.Timer
	done  chan struct{}
	once  sync.Once
}

func (p *timedPlayback) finish() { p.once.Do(func() { close(p.done) }) }

func (p *timedPlayback) Done() <-chan struct{} { return p.done }

func (p *timedPlayback) Stop() {
	p.timer.Stop()
	p.finish()
}
