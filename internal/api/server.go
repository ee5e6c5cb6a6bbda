// Package api exposes the tracking session over HTTP: frame ingest from the
// acquisition layer and read-only views of motion logs and the latest fused
// estimate for the visualization layer.
package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/skywatch-data/stereotrack/internal/httputil"
	"github.com/skywatch-data/stereotrack/internal/motion"
	"github.com/skywatch-data/stereotrack/internal/track"
	"github.com/skywatch-data/stereotrack/internal/version"
)

// maxFrameBytes bounds ingest bodies (8 MP grayscale).
const maxFrameBytes = 8 << 20

// Server serves the session's HTTP surface.
type Server struct {
	session *track.Session
}

// NewServer wraps a session.
func NewServer(session *track.Session) *Server {
	return &Server{session: session}
}

// ServeMux returns the route table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.health)
	mux.HandleFunc("/api/triangulation/latest", s.latestTriangulation)
	mux.HandleFunc("/api/motion", s.motionLog)
	mux.HandleFunc("/api/frames", s.ingestFrame)
	return mux
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, map[string]interface{}{
		"status":  "ok",
		"version": version.Version,
		"session": s.session.ID(),
		"cameras": s.session.Cameras(),
	})
}

// triangulationJSON is the wire form of a fused estimate.
type triangulationJSON struct {
	X          float64            `json:"x"`
	Y          float64            `json:"y"`
	Z          float64            `json:"z"`
	Confidence float64            `json:"confidence"`
	Pairs      int                `json:"pairs"`
	Cameras    []string           `json:"cameras"`
	ComputedAt time.Time          `json:"computed_at"`
	Detections map[string]detJSON `json:"detections"`
}

type detJSON struct {
	CenterX   float64   `json:"center_x"`
	CenterY   float64   `json:"center_y"`
	Area      int       `json:"area"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) latestTriangulation(w http.ResponseWriter, r *http.Request) {
	p := s.session.LatestTriangulation()
	if p == nil {
		// No current estimate is a normal condition, not an error.
		httputil.WriteJSON(w, map[string]interface{}{"estimate": nil})
		return
	}
	out := triangulationJSON{
		X:          p.Position.Position.X,
		Y:          p.Position.Position.Y,
		Z:          p.Position.Position.Z,
		Confidence: p.Position.Confidence,
		Pairs:      p.Position.Pairs,
		ComputedAt: p.ComputedAt,
		Detections: make(map[string]detJSON, len(p.Set)),
	}
	for cam, d := range p.Set {
		out.Cameras = append(out.Cameras, string(cam))
		out.Detections[string(cam)] = detJSON{
			CenterX:   d.Center.X,
			CenterY:   d.Center.Y,
			Area:      d.Area,
			Timestamp: d.Timestamp,
		}
	}
	httputil.WriteJSON(w, map[string]interface{}{"estimate": out})
}

func (s *Server) motionLog(w http.ResponseWriter, r *http.Request) {
	camera := r.URL.Query().Get("camera")
	if camera == "" {
		httputil.WriteJSONError(w, http.StatusBadRequest, "missing camera parameter")
		return
	}
	log := s.session.MotionLog(motion.CameraID(camera))
	type entry struct {
		CenterX   float64   `json:"center_x"`
		CenterY   float64   `json:"center_y"`
		Area      int       `json:"area"`
		Timestamp time.Time `json:"timestamp"`
	}
	out := make([]entry, len(log))
	for i, d := range log {
		out[i] = entry{CenterX: d.Center.X, CenterY: d.Center.Y, Area: d.Area, Timestamp: d.Timestamp}
	}
	httputil.WriteJSON(w, map[string]interface{}{"camera": camera, "detections": out})
}

// ingestFrame accepts one raw grayscale frame: POST /api/frames?camera=ID&
// width=W&height=H&ts=UNIX_NANOS with a W*H byte body.
func (s *Server) ingestFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteJSONError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	q := r.URL.Query()
	camera := q.Get("camera")
	if camera == "" {
		httputil.WriteJSONError(w, http.StatusBadRequest, "missing camera parameter")
		return
	}
	width, err := strconv.Atoi(q.Get("width"))
	if err != nil {
		httputil.WriteJSONError(w, http.StatusBadRequest, "invalid width")
		return
	}
	height, err := strconv.Atoi(q.Get("height"))
	if err != nil {
		httputil.WriteJSONError(w, http.StatusBadRequest, "invalid height")
		return
	}
	tsNanos, err := strconv.ParseInt(q.Get("ts"), 10, 64)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusBadRequest, "invalid ts")
		return
	}
	if width <= 0 || height <= 0 || width*height > maxFrameBytes {
		httputil.WriteJSONError(w, http.StatusBadRequest, "unsupported frame size")
		return
	}

	pix, err := io.ReadAll(io.LimitReader(r.Body, maxFrameBytes+1))
	if err != nil {
		httputil.WriteJSONError(w, http.StatusBadRequest, "read body")
		return
	}
	if len(pix) != width*height {
		httputil.WriteJSONError(w, http.StatusBadRequest,
			fmt.Sprintf("body holds %d bytes, want %d", len(pix), width*height))
		return
	}

	frame := motion.Frame{Width: width, Height: height, Pix: pix}
	detections, err := s.session.ProcessFrame(motion.CameraID(camera), frame, time.Unix(0, tsNanos))
	if err != nil {
		httputil.WriteJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	accepted := 0
	for _, d := range detections {
		if d.Accepted {
			accepted++
		}
	}
	httputil.WriteJSON(w, map[string]interface{}{
		"candidates": len(detections),
		"accepted":   accepted,
	})
}
