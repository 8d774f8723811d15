// Package webcam estimates gaze from a webcam with OpenCV Haar cascades.
//
// Importing the package registers gaze.MethodWebcam with the gaze factory:
//
//	import _ "github.com/teslashibe/go-foveate/pkg/gaze/webcam"
package webcam

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-foveate/pkg/debug"
	"github.com/teslashibe/go-foveate/pkg/gaze"
	"gocv.io/x/gocv"
)

func init() {
	gaze.Register(gaze.MethodWebcam, func(cfg gaze.Config, _ gaze.Deps, logger *slog.Logger) (gaze.Source, error) {
		return New(cfg, logger), nil
	})
}

// frameReader is the capture side of a gocv.VideoCapture.
type frameReader interface {
	Read(m *gocv.Mat) bool
	Close() error
}

// detector is the detection side of a gocv.CascadeClassifier.
type detector interface {
	DetectMultiScale(img gocv.Mat) []image.Rectangle
	Close() error
}

// Source is a gaze provider backed by a capture device.
type Source struct {
	cfg     gaze.Config
	axes    gaze.AxisConvention
	logger  *slog.Logger
	mailbox *gaze.Mailbox

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	received  atomic.Int64
	rejected  atomic.Int64
	abandoned atomic.Int64
}

// New creates a webcam source. The device is not opened until Initialize.
// Unset timings fall back to gaze.DefaultConfig.
func New(cfg gaze.Config, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.WithTimings()
	return &Source{
		cfg:     cfg,
		axes:    cfg.AxesFor(gaze.MethodWebcam),
		logger:  logger.With("gaze", "webcam"),
		mailbox: gaze.NewMailbox(),
	}
}

func (s *Source) initErr(err error) error {
	return &gaze.InitError{Method: gaze.MethodWebcam, Err: err}
}

// Initialize loads the cascades, opens the device and starts the capture loop.
func (s *Source) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return nil
	}

	facePath := filepath.Join(s.cfg.CascadeDir, FaceCascade)
	eyePath := filepath.Join(s.cfg.CascadeDir, EyeCascade)
	for _, p := range []string{facePath, eyePath} {
		if _, err := os.Stat(p); err != nil {
			return s.initErr(fmt.Errorf("cascade not found: %s", p))
		}
	}

	face := gocv.NewCascadeClassifier()
	if !face.Load(facePath) {
		face.Close()
		return s.initErr(fmt.Errorf("load cascade %s", facePath))
	}
	eye := gocv.NewCascadeClassifier()
	if !eye.Load(eyePath) {
		face.Close()
		eye.Close()
		return s.initErr(fmt.Errorf("load cascade %s", eyePath))
	}

	capture, err := gocv.OpenVideoCapture(s.cfg.Device)
	if err != nil {
		face.Close()
		eye.Close()
		return s.initErr(fmt.Errorf("open device %d: %w", s.cfg.Device, err))
	}

	s.start(capture, &face, &eye)

	s.logger.Info("webcam gaze started", "device", s.cfg.Device)
	return nil
}

// start runs the capture loop over opened handles; callers hold s.mu.
func (s *Source) start(capture frameReader, face, eye detector) {
	s.mailbox.Reset()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, s.done, capture, face, eye)
}

// loop owns the handles and releases them when it returns, including after
// Cleanup has stopped waiting for it.
func (s *Source) loop(ctx context.Context, done chan struct{}, capture frameReader, face, eye detector) {
	defer close(done)
	defer func() {
		capture.Close()
		face.Close()
		eye.Close()
	}()

	frame := gocv.NewMat()
	defer frame.Close()
	mirrored := gocv.NewMat()
	defer mirrored.Close()
	gray := gocv.NewMat()
	defer gray.Close()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if ok := capture.Read(&frame); !ok || frame.Empty() {
			time.Sleep(s.cfg.ReadPoll)
			continue
		}

		gocv.Flip(frame, &mirrored, 1)
		gocv.CvtColor(mirrored, &gray, gocv.ColorBGRToGray)

		sample, ok := estimate(gray, face, eye)
		if !ok {
			s.rejected.Add(1)
			continue
		}

		debug.GazeLog("📷 webcam gaze: %.2f, %.2f\n", sample.X, sample.Y)
		s.mailbox.Publish(s.axes.Apply(sample))
		s.received.Add(1)
	}
}

func estimate(gray gocv.Mat, faces, eyes detector) (gaze.Sample, bool) {
	face, ok := largest(faces.DetectMultiScale(gray))
	if !ok {
		return gaze.Sample{}, false
	}

	roi := gray.Region(face)
	defer roi.Close()

	x, y, ok := eyeCentre(face, eyes.DetectMultiScale(roi))
	if !ok {
		return gaze.Sample{}, false
	}
	return toSample(x, y, gray.Cols(), gray.Rows()), true
}

// Cleanup stops the loop, waiting up to JoinTimeout. The loop releases the
// device and cascades on exit; after a timeout that happens once the
// pending Read returns.
func (s *Source) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil

	select {
	case <-s.done:
		s.logger.Info("webcam gaze stopped")
	case <-time.After(s.cfg.JoinTimeout):
		s.abandoned.Add(1)
		s.logger.Warn("webcam loop did not stop in time, abandoning device", "timeout", s.cfg.JoinTimeout)
	}
}

// Abandoned returns how many Cleanups stopped waiting for the loop.
func (s *Source) Abandoned() int64 {
	return s.abandoned.Load()
}

// Direction returns the latest estimated sample.
func (s *Source) Direction() gaze.Sample {
	sample, _ := s.mailbox.Load()
	return sample
}

// Name returns "webcam".
func (s *Source) Name() string {
	return string(gaze.MethodWebcam)
}

// Stats returns provider counters.
func (s *Source) Stats() gaze.SourceStats {
	s.mu.Lock()
	running := s.cancel != nil
	s.mu.Unlock()

	return gaze.SourceStats{
		Received: s.received.Load(),
		Rejected: s.rejected.Load(),
		Running:  running,
		Method:   string(gaze.MethodWebcam),
	}
}
