package gaze

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-foveate/pkg/debug"
)

// maxPayload is larger than any "x,y" datagram a tracker sends.
const maxPayload = 512

// ParsePayload parses an ASCII "x,y" datagram.
// Decimal points are always '.', regardless of locale.
func ParsePayload(payload string) (Sample, error) {
	parts := strings.Split(strings.TrimSpace(payload), ",")
	if len(parts) != 2 {
		return Sample{}, fmt.Errorf("%w: want 2 fields, got %d", ErrMalformedPayload, len(parts))
	}

	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Sample{}, fmt.Errorf("%w: x: %v", ErrMalformedPayload, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Sample{}, fmt.Errorf("%w: y: %v", ErrMalformedPayload, err)
	}

	s := Sample{X: x, Y: y}
	if !s.Valid() {
		return Sample{}, fmt.Errorf("%w: non-finite value", ErrMalformedPayload)
	}
	return s.Clamp(), nil
}

// FormatPayload renders a sample in the wire format.
func FormatPayload(s Sample) string {
	return strconv.FormatFloat(s.X, 'f', 4, 64) + "," + strconv.FormatFloat(s.Y, 'f', 4, 64)
}

// receiver is one Initialize..Cleanup lifetime of a UDPSource.
type receiver struct {
	conn      *net.UDPConn
	stop      atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

func (r *receiver) close() {
	r.closeOnce.Do(func() {
		r.conn.Close()
	})
}

// UDPSource receives gaze samples from an external tracker over UDP.
// One background goroutine blocks on the socket; the frame thread reads
// the latest sample from a Mailbox.
type UDPSource struct {
	cfg     Config
	axes    AxisConvention
	logger  *slog.Logger
	mailbox *Mailbox

	mu  sync.Mutex
	run *receiver

	received atomic.Int64
	rejected atomic.Int64
	forced   atomic.Int64
}

// NewUDPSource creates a network gaze source. It does not bind until Initialize.
// Unset timings fall back to DefaultConfig.
func NewUDPSource(cfg Config, logger *slog.Logger) *UDPSource {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.WithTimings()
	return &UDPSource{
		cfg:     cfg,
		axes:    cfg.AxesFor(MethodNetwork),
		logger:  logger.With("gaze", "network"),
		mailbox: NewMailbox(),
	}
}

// Initialize binds the socket and starts the receiver.
// Calling it while already running is a no-op.
func (u *UDPSource) Initialize(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.run != nil {
		return nil
	}

	addr := net.JoinHostPort(u.cfg.Address, strconv.Itoa(u.cfg.Port))
	var lc net.ListenConfig
	pc, err := lc.ListenPacket(ctx, "udp", addr)
	if err != nil {
		return &InitError{Method: MethodNetwork, Err: err}
	}

	r := &receiver{
		conn: pc.(*net.UDPConn),
		done: make(chan struct{}),
	}
	u.run = r
	u.mailbox.Reset()

	go u.receiveLoop(r)

	u.logger.Info("gaze receiver listening", "addr", r.conn.LocalAddr().String())
	return nil
}

func (u *UDPSource) receiveLoop(r *receiver) {
	defer close(r.done)
	defer r.close()

	buf := make([]byte, maxPayload)
	for !r.stop.Load() {
		r.conn.SetReadDeadline(time.Now().Add(u.cfg.ReadPoll))

		n, from, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) || r.stop.Load() {
				return
			}
			u.logger.Warn("gaze socket error", "error", err)
			continue
		}

		payload := string(buf[:n])
		debug.GazeLog("📡 gaze raw: %q from %s\n", payload, from)

		s, err := ParsePayload(payload)
		if err != nil {
			u.logger.Warn("dropping gaze payload", "payload", payload, "from", from.String(), "error", err)
			u.rejected.Add(1)
			continue
		}

		u.mailbox.Publish(u.axes.Apply(s))
		u.received.Add(1)
	}
}

// Cleanup stops the receiver, waiting up to JoinTimeout before forcing
// the socket closed. The socket is closed on every path.
func (u *UDPSource) Cleanup() {
	u.mu.Lock()
	r := u.run
	u.run = nil
	u.mu.Unlock()

	if r == nil {
		return
	}

	r.stop.Store(true)

	select {
	case <-r.done:
	case <-time.After(u.cfg.JoinTimeout):
		// Closing the socket unblocks the read; the goroutine is abandoned.
		u.forced.Add(1)
		u.logger.Warn("gaze receiver did not stop in time, forcing close",
			"timeout", u.cfg.JoinTimeout)
	}
	r.close()

	u.logger.Info("gaze receiver shut down")
}

// Direction returns the latest received sample, or zero before any arrived.
func (u *UDPSource) Direction() Sample {
	s, _ := u.mailbox.Load()
	return s
}

// Name returns "network".
func (u *UDPSource) Name() string {
	return string(MethodNetwork)
}

// Addr returns the bound address, or nil when not running.
func (u *UDPSource) Addr() net.Addr {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.run == nil {
		return nil
	}
	return u.run.conn.LocalAddr()
}

// Stats returns provider counters.
func (u *UDPSource) Stats() SourceStats {
	u.mu.Lock()
	running := u.run != nil
	u.mu.Unlock()

	return SourceStats{
		Received: u.received.Load(),
		Rejected: u.rejected.Load(),
		Running:  running,
		Method:   string(MethodNetwork),
	}
}

// ForcedStops returns how many Cleanups hit the join timeout.
func (u *UDPSource) ForcedStops() int64 {
	return u.forced.Load()
}
