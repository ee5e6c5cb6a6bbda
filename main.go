// Command stereotrack runs the multi-camera motion tracking engine as a
// service: frames arrive over the HTTP ingest endpoint (or from the built-in
// synthetic replay feed), and the latest fused 3D estimate is served back to
// visualization clients.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/skywatch-data/stereotrack/internal/api"
	"github.com/skywatch-data/stereotrack/internal/config"
	"github.com/skywatch-data/stereotrack/internal/geom"
	"github.com/skywatch-data/stereotrack/internal/motion"
	"github.com/skywatch-data/stereotrack/internal/replay"
	"github.com/skywatch-data/stereotrack/internal/store"
	"github.com/skywatch-data/stereotrack/internal/track"
	"github.com/skywatch-data/stereotrack/internal/version"
)

var (
	configPath = flag.String("config", "stereotrack.yaml", "Path to the config file")
	listen     = flag.String("listen", "", "Listen address (overrides config)")
	dbPath     = flag.String("db", "", "Archive database path (overrides config)")
	replayMode = flag.Bool("replay", false, "Feed the session from the synthetic replay source instead of HTTP ingest")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Fatalf("stereotrack: %v", err)
	}
}

func run() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	profile, err := motion.ProfileByName(cfg.Profile)
	if err != nil {
		return err
	}
	poses, err := geom.PresetPoses(cfg.PosePreset, cfg.Cameras)
	if err != nil {
		return err
	}

	cameras := make([]track.CameraSetup, cfg.Cameras)
	for i := range cameras {
		cameras[i] = track.CameraSetup{
			ID:        motion.CameraID(fmt.Sprintf("camera-%d", i)),
			Detection: profile,
			Pose:      poses[i],
		}
	}

	archive, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer archive.Close()

	sessionCfg := track.SessionConfig{
		Sync: track.SynchronizerConfig{
			Tolerance:     cfg.SyncTolerance(),
			RecencyWindow: cfg.RecencyWindow(),
		},
		Triangulator:     geom.DefaultTriangulatorConfig(),
		ConsumerInterval: cfg.ConsumerInterval(),
	}
	session, err := track.NewSession(sessionCfg, cameras, nil, archive)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		session.RunConsumer(ctx)
	}()

	if *replayMode {
		startReplayFeeds(ctx, &wg, session, profile)
	}

	server := &http.Server{
		Addr:    cfg.Listen,
		Handler: api.NewServer(session).ServeMux(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("stereotrack %s session %s listening on %s (profile=%s preset=%s cameras=%d)",
		version.String(), session.ID(), cfg.Listen, cfg.Profile, cfg.PosePreset, cfg.Cameras)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	wg.Wait()
	return nil
}

// startReplayFeeds launches one synthetic producer per camera, sweeping a
// blob through each camera's view so the full pipeline runs without real
// acquisition hardware.
func startReplayFeeds(ctx context.Context, wg *sync.WaitGroup, session *track.Session, profile motion.Config) {
	interval := time.Duration(float64(time.Second) / profile.FrameRate)
	for _, id := range session.Cameras() {
		srcCfg := replay.SyntheticConfig{
			Width:         profile.FrameWidth,
			Height:        profile.FrameHeight,
			BlobSize:      blobEdge(profile),
			Background:    40,
			BlobValue:     220,
			FrameInterval: interval,
			Start:         time.Now(),
		}
		traj := replay.LinearTrajectory(float64(profile.FrameWidth)/4, float64(profile.FrameHeight)/2,
			float64(profile.FrameWidth)/8, 0)
		src, err := replay.NewSyntheticSource(srcCfg, traj)
		if err != nil {
			log.Printf("replay feed %s: %v", id, err)
			continue
		}
		wg.Add(1)
		go func(camera motion.CameraID, src *replay.SyntheticSource) {
			defer wg.Done()
			paced := &pacedSource{src: src, interval: interval}
			session.RunCamera(ctx, camera, paced)
		}(id, src)
	}
}

// blobEdge picks a synthetic blob size whose area sits inside the profile's
// artifact band.
func blobEdge(profile motion.Config) int {
	edge := 2
	for (edge+1)*(edge+1) <= (profile.ArtifactMinArea+profile.ArtifactMaxArea)/2 {
		edge++
	}
	return edge
}

// pacedSource throttles a synthetic source to its nominal frame rate.
type pacedSource struct {
	src      *replay.SyntheticSource
	interval time.Duration
}

func (p *pacedSource) Next(ctx context.Context) (motion.Frame, time.Time, error) {
	select {
	case <-ctx.Done():
		return motion.Frame{}, time.Time{}, ctx.Err()
	case <-time.After(p.interval):
	}
	return p.src.Next(ctx)
}
