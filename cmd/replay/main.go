// Command replay runs a deterministic two-camera synthetic session without
// any network surface and prints every fused estimate. Useful for tuning
// detection profiles against a known trajectory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/skywatch-data/stereotrack/internal/geom"
	"github.com/skywatch-data/stereotrack/internal/motion"
	"github.com/skywatch-data/stereotrack/internal/replay"
	"github.com/skywatch-data/stereotrack/internal/track"
)

var (
	profileName = flag.String("profile", "bird", "Detection profile: mosquito, bird, aircraft, custom")
	frames      = flag.Int("frames", 300, "Frames to replay per camera")
	cycleEvery  = flag.Int("cycle-every", 5, "Run a triangulation cycle every N frames")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Fatalf("replay: %v", err)
	}
}

func run() error {
	profile, err := motion.ProfileByName(*profileName)
	if err != nil {
		return err
	}
	left, right := geom.SkywardPair()
	session, err := track.NewSession(track.DefaultSessionConfig(), []track.CameraSetup{
		{ID: "left", Detection: profile, Pose: left},
		{ID: "right", Detection: profile, Pose: right},
	}, nil, nil)
	if err != nil {
		return err
	}

	interval := time.Duration(float64(time.Second) / profile.FrameRate)
	start := time.Now()
	traj := replay.LinearTrajectory(float64(profile.FrameWidth)/4, float64(profile.FrameHeight)/2,
		float64(profile.FrameWidth)/6, float64(profile.FrameHeight)/12)
	srcCfg := replay.SyntheticConfig{
		Width:         profile.FrameWidth,
		Height:        profile.FrameHeight,
		BlobSize:      12,
		Background:    40,
		BlobValue:     220,
		FrameInterval: interval,
		Start:         start,
		MaxFrames:     *frames,
	}

	sources := map[motion.CameraID]*replay.SyntheticSource{}
	for _, id := range session.Cameras() {
		src, err := replay.NewSyntheticSource(srcCfg, traj)
		if err != nil {
			return err
		}
		sources[id] = src
	}

	ctx := context.Background()
	estimates := 0
	for n := 0; n < *frames; n++ {
		for _, id := range session.Cameras() {
			frame, ts, err := sources[id].Next(ctx)
			if err != nil {
				return err
			}
			if _, err := session.ProcessFrame(id, frame, ts); err != nil {
				return err
			}
		}
		if (n+1)%*cycleEvery != 0 {
			continue
		}
		if p := session.Cycle(); p != nil {
			estimates++
			pos := p.Position.Position
			fmt.Fprintf(os.Stdout, "frame %4d  estimate (%.2f, %.2f, %.2f)  confidence %.2f  pairs %d\n",
				n+1, pos.X, pos.Y, pos.Z, p.Position.Confidence, p.Position.Pairs)
		}
	}
	fmt.Fprintf(os.Stdout, "replayed %d frames, %d estimates\n", *frames, estimates)
	return nil
}
