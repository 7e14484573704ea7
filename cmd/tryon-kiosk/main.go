// Command tryon-kiosk drives one kiosk session from the terminal: it starts
// the camera, waits for a good pose, captures a frame and submits it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fatkhan05/ai-try-on/internal/camera"
	"github.com/fatkhan05/ai-try-on/internal/client"
	"github.com/fatkhan05/ai-try-on/internal/logging"
	"github.com/fatkhan05/ai-try-on/internal/tryon"
)

type options struct {
	endpoint       string
	garment        string
	fabric         string
	color          string
	size           string
	imagePath      string
	sessionID      string
	token          string
	sampleInterval time.Duration
	poseTimeout    time.Duration
	poseCheckDelay time.Duration
	logLevel       string
	list           bool
}

func main() {
	opts := parseFlags(os.Args[1:])

	logger, err := logging.NewLogger(opts.logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if opts.list {
		printCatalog(os.Stdout)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger, os.Stdout); err != nil {
		logger.Error("kiosk session failed", zap.Error(err))
		os.Exit(1)
	}
}

func parseFlags(args []string) options {
	var opts options
	fs := flag.NewFlagSet("tryon-kiosk", flag.ExitOnError)
	fs.StringVar(&opts.endpoint, "endpoint", client.DefaultEndpoint, "try-on endpoint URL")
	fs.StringVar(&opts.garment, "garment", string(tryon.GarmentDress), "garment template")
	fs.StringVar(&opts.fabric, "fabric", string(tryon.FabricCotton), "fabric")
	fs.StringVar(&opts.color, "color", "Black", "color name")
	fs.StringVar(&opts.size, "size", string(tryon.SizeM), "size label")
	fs.StringVar(&opts.imagePath, "image", "", "still image used as the camera feed (default: generated test pattern)")
	fs.StringVar(&opts.sessionID, "session", "", "session id sent in the X-Session-ID header")
	fs.StringVar(&opts.token, "token", "", "bearer token for JWT protected deployments")
	fs.DurationVar(&opts.sampleInterval, "sample-interval", time.Second, "pose sampler period")
	fs.DurationVar(&opts.poseTimeout, "pose-timeout", 30*time.Second, "how long to wait for a good pose")
	fs.DurationVar(&opts.poseCheckDelay, "pose-check-delay", time.Second, "simulated latency of the pose check on the captured frame")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level")
	fs.BoolVar(&opts.list, "list", false, "print the garment catalog and exit")
	_ = fs.Parse(args)
	return opts
}

func run(ctx context.Context, opts options, logger *zap.Logger, out io.Writer) error {
	source := camera.NewPatternSource()
	if opts.imagePath != "" {
		source = camera.NewFileSource(opts.imagePath)
	}

	samples := make(chan camera.PoseSample, 1)
	cam := camera.NewController(source,
		camera.WithLogger(logger),
		camera.WithInterval(opts.sampleInterval),
		camera.WithOnSample(func(s camera.PoseSample) {
			select {
			case samples <- s:
			default:
			}
		}),
	)

	if err := cam.Toggle(ctx); err != nil {
		return errors.New(camera.ErrorMessage(err))
	}
	defer cam.Stop()
	fmt.Fprintln(out, "Camera active, hold still...")

	capture, err := waitAndCapture(ctx, cam, samples, opts.poseTimeout, out)
	if err != nil {
		return err
	}

	check := client.ValidateImageQuality(capture.ImageData)
	fmt.Fprintf(out, "Captured %dx%d frame (quality %s)\n", check.Resolution.Width, check.Resolution.Height, check.Quality)
	for _, r := range check.Recommendations {
		fmt.Fprintf(out, "  hint: %s\n", r)
	}

	engine := client.NewEngine(
		client.WithEndpoint(opts.endpoint),
		client.WithSessionID(opts.sessionID),
		client.WithToken(opts.token),
		client.WithLogger(logger),
		client.WithPoseDelay(opts.poseCheckDelay),
	)

	pose := engine.DetectPose(ctx, capture.ImageData)
	if !pose.Success {
		return fmt.Errorf("pose check failed: %s", pose.Error)
	}
	fmt.Fprintf(out, "Pose detected (confidence %.2f, shoulders at %d,%d)\n",
		pose.Confidence, pose.Keypoints.Shoulders.X, pose.Keypoints.Shoulders.Y)
	fmt.Fprintln(out, "Processing with AI...")
	res := engine.Process(ctx, capture.ImageData, tryon.GarmentConfig{
		Garment: tryon.Garment(opts.garment),
		Fabric:  tryon.Fabric(opts.fabric),
		Color:   opts.color,
		Size:    tryon.Size(opts.size),
	})

	printResult(out, res)
	if !res.Success {
		return res.Err
	}
	return nil
}

func waitAndCapture(ctx context.Context, cam *camera.Controller, samples <-chan camera.PoseSample, timeout time.Duration, out io.Writer) (*camera.Capture, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, fmt.Errorf("no good pose within %s", timeout)
		case s := <-samples:
			fmt.Fprintf(out, "  pose %-12s confidence %.2f quality %s\n", s.Status, s.Confidence, s.Quality)
			if s.Status != camera.PoseGood {
				continue
			}
			capture, err := cam.Capture()
			if errors.Is(err, camera.ErrPoseNotReady) {
				continue
			}
			return capture, err
		}
	}
}

func printResult(out io.Writer, res *client.Result) {
	if !res.Success {
		fmt.Fprintf(out, "Try-on failed: %s\n", res.Error)
		return
	}
	md := res.Metadata
	fmt.Fprintln(out, "Try-on result")
	fmt.Fprintf(out, "  request     %s\n", res.RequestID)
	fmt.Fprintf(out, "  image       %s\n", res.TryOnImage)
	fmt.Fprintf(out, "  confidence  %.0f%%\n", md.Confidence*100)
	fmt.Fprintf(out, "  time        %.1fs\n", float64(md.ProcessingTime)/1000)
	fmt.Fprintf(out, "  model       %s\n", md.ModelVersion)
	fmt.Fprintf(out, "  selection   %s / %s / %s / %s\n", md.GarmentConfig.Garment, md.GarmentConfig.Fabric, md.GarmentConfig.Color, md.GarmentConfig.Size)
}

func printCatalog(out io.Writer) {
	fmt.Fprintln(out, "Garments:")
	for _, g := range tryon.Garments() {
		fmt.Fprintf(out, "  %s\n", g)
	}
	fmt.Fprintln(out, "Fabrics:")
	for _, f := range tryon.Fabrics() {
		fmt.Fprintf(out, "  %s\n", f)
	}
	fmt.Fprintln(out, "Colors:")
	for _, c := range tryon.Colors() {
		fmt.Fprintf(out, "  %-10s %s\n", c.Name, c.Hex)
	}
	fmt.Fprintln(out, "Sizes:")
	for _, s := range tryon.Sizes() {
		fmt.Fprintf(out, "  %s\n", s)
	}
}
