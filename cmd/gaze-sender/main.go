// gaze-sender: feeds gaze samples to a running foveate process
//
// Samples come from a Lissajous sweep, a slow circle, or stdin ("x,y" or
// "x y" per line). They are sent as "x,y" UDP datagrams to the network
// provider or as protocol gaze messages over websocket to the remote
// provider.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"math"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/teslashibe/go-foveate/internal/config"
	"github.com/teslashibe/go-foveate/pkg/gaze"
	"github.com/teslashibe/go-foveate/pkg/protocol"
)

var (
	transport = flag.String("transport", "udp", "udp or ws")
	target    = flag.String("target", "", "UDP host:port or websocket URL (default: localhost with env ports)")
	pattern   = flag.String("pattern", "lissajous", "lissajous, circle, or stdin")
	rate      = flag.Int("rate", 60, "Samples per second for generated patterns")
	name      = flag.String("name", "gaze-sender", "Tracker name reported over websocket")
)

// sender delivers one sample.
type sender interface {
	Send(s gaze.Sample) error
	Close() error
}

type udpSender struct {
	conn net.Conn
}

func (u *udpSender) Send(s gaze.Sample) error {
	_, err := u.conn.Write([]byte(gaze.FormatPayload(s)))
	return err
}

func (u *udpSender) Close() error { return u.conn.Close() }

type wsSender struct {
	conn *websocket.Conn
	seq  uint64
}

func (w *wsSender) Send(s gaze.Sample) error {
	w.seq++
	msg, err := protocol.NewGazeMessage(s.X, s.Y, 1, w.seq)
	if err != nil {
		return err
	}
	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func (w *wsSender) Close() error {
	w.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return w.conn.Close()
}

func dial() (sender, error) {
	switch *transport {
	case "udp":
		addr := *target
		if addr == "" {
			addr = fmt.Sprintf("127.0.0.1:%d", config.GazePort())
		}
		conn, err := net.Dial("udp", addr)
		if err != nil {
			return nil, err
		}
		return &udpSender{conn: conn}, nil

	case "ws":
		url := *target
		if url == "" {
			url = fmt.Sprintf("ws://localhost:%s/ws/tracker/%s", config.DashboardPort(), *name)
		}
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			return nil, err
		}
		// Drain server messages (welcome, errors, pongs).
		go func() {
			for {
				_, data, err := conn.ReadMessage()
				if err != nil {
					return
				}
				if msg, err := protocol.ParseMessage(data); err == nil && msg.Type == protocol.TypeError {
					if e, err := msg.GetErrorData(); err == nil {
						fmt.Fprintf(os.Stderr, "⚠️  server: %s %s\n", e.Code, e.Message)
					}
				}
			}
		}()
		hello, err := protocol.NewHelloMessage(*name, "gaze-sender", "1.0")
		if err != nil {
			conn.Close()
			return nil, err
		}
		data, _ := hello.Bytes()
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			return nil, err
		}
		return &wsSender{conn: conn}, nil

	default:
		return nil, fmt.Errorf("unknown transport %q", *transport)
	}
}

// lissajous traces a 3:2 figure across most of the view.
func lissajous(t float64) gaze.Sample {
	return gaze.Sample{
		X: 0.8 * math.Sin(3*t),
		Y: 0.6 * math.Sin(2*t+math.Pi/2),
	}
}

func circle(t float64) gaze.Sample {
	return gaze.Sample{X: 0.5 * math.Cos(t), Y: 0.5 * math.Sin(t)}
}

// parseLine accepts "x,y" or "x y".
func parseLine(line string) (gaze.Sample, error) {
	line = strings.TrimSpace(line)
	if !strings.Contains(line, ",") {
		line = strings.Join(strings.Fields(line), ",")
	}
	return gaze.ParsePayload(line)
}

func main() {
	flag.Parse()

	out, err := dial()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ connect: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("📡 Sending %s gaze over %s\n", *pattern, *transport)

	if *pattern == "stdin" {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if ctx.Err() != nil {
				return
			}
			s, err := parseLine(scanner.Text())
			if err != nil {
				fmt.Fprintf(os.Stderr, "⚠️  %v\n", err)
				continue
			}
			if err := out.Send(s); err != nil {
				fmt.Fprintf(os.Stderr, "❌ send: %v\n", err)
				return
			}
		}
		return
	}

	gen := lissajous
	switch *pattern {
	case "lissajous":
	case "circle":
		gen = circle
	default:
		fmt.Fprintf(os.Stderr, "❌ unknown pattern %q\n", *pattern)
		os.Exit(2)
	}

	if *rate <= 0 {
		*rate = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(*rate))
	defer ticker.Stop()

	start := time.Now()
	sent := 0
	for {
		select {
		case <-ctx.Done():
			fmt.Printf("\n👋 Sent %d samples\n", sent)
			return
		case now := <-ticker.C:
			if err := out.Send(gen(now.Sub(start).Seconds())); err != nil {
				fmt.Fprintf(os.Stderr, "❌ send: %v\n", err)
				return
			}
			sent++
		}
	}
}
