// gaze-watch: follows a running foveate dashboard from the command line
//
// Prints the current status, optionally switches the gaze provider, then
// streams gaze samples from /ws/gaze.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/teslashibe/go-foveate/internal/config"
	"github.com/teslashibe/go-foveate/internal/httpc"
	"github.com/teslashibe/go-foveate/pkg/protocol"
)

var (
	host   = flag.String("host", "", "Dashboard host:port (default localhost:$FOVEATE_DASHBOARD_PORT)")
	method = flag.String("switch", "", "Switch the gaze provider before watching")
	width  = flag.Int("width", 41, "Width of the gaze track")
)

// track renders x in [-1, 1] as a marker on a fixed-width line.
func track(x float64, w int) string {
	if w < 3 {
		w = 3
	}
	pos := int((x + 1) / 2 * float64(w-1))
	pos = max(0, min(w-1, pos))
	b := []byte(strings.Repeat("-", w))
	b[w/2] = '|'
	b[pos] = '*'
	return string(b)
}

func main() {
	flag.Parse()

	addr := *host
	if addr == "" {
		addr = "localhost:" + config.DashboardPort()
	}
	base := "http://" + addr

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *method != "" {
		var resp map[string]any
		if err := httpc.PostJSON(ctx, base+"/api/gaze/method", map[string]string{"method": *method}, &resp); err != nil {
			fmt.Fprintf(os.Stderr, "❌ switch: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("🔀 Gaze provider: %v\n", resp["method"])
	}

	var st protocol.StatusData
	if err := httpc.GetJSON(ctx, base+"/api/status", &st); err != nil {
		fmt.Fprintf(os.Stderr, "❌ status: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("👁  %s | %d fps | rates %s | pattern %s | session %v | brackets %v | trackers %d\n",
		st.Method, st.FPS, st.Preset, st.Pattern, st.Session, st.Pipeline, st.Trackers)

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, "ws://"+addr+"/ws/gaze", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ websocket: %v\n", err)
		os.Exit(1)
	}
	defer ws.Close()

	go func() {
		<-ctx.Done()
		ws.Close()
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				fmt.Fprintf(os.Stderr, "\n❌ read: %v\n", err)
			}
			fmt.Println()
			return
		}
		msg, err := protocol.ParseMessage(data)
		if err != nil || msg.Type != protocol.TypeGaze {
			continue
		}
		g, err := msg.GetGazeData()
		if err != nil {
			continue
		}
		fmt.Printf("\r x %s % .3f   y % .3f  #%d   ", track(g.X, *width), g.X, g.Y, g.Seq)
	}
}
