package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Pinkesh2905/FaceTrace/internal/attendance"
	"github.com/Pinkesh2905/FaceTrace/internal/cache"
	"github.com/Pinkesh2905/FaceTrace/internal/camera"
	"github.com/Pinkesh2905/FaceTrace/internal/constants"
	"github.com/Pinkesh2905/FaceTrace/internal/recognition"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize",
	Short: "Run the recognition loop of one camera",
	Long: `Read frames from a camera or an image directory, match the faces against
the tenant's registered encodings and punch matched employees in or out.

Examples:
  facetrace recognize --tenant acme --dir ./frames
  facetrace recognize --tenant acme --device 0 --show`,
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().String("dir", "", "Read frames from image files in this directory")
	recognizeCmd.Flags().String("device", "", "Camera device index or stream URL (requires -tags gocv)")
	recognizeCmd.Flags().String("camera-id", "", "Camera id stored on punches (defaults to the device or directory)")
	recognizeCmd.Flags().Float64("scale", 0.5, "Downscale factor applied before extraction")
	recognizeCmd.Flags().Bool("show", false, "Show a preview window with labelled faces (requires -tags gocv)")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	tenant, err := requireTenantFlag()
	if err != nil {
		return err
	}
	dir := mustGetString(cmd, "dir")
	device := mustGetString(cmd, "device")
	if (dir == "") == (device == "") {
		return fmt.Errorf("exactly one of --dir or --device is required")
	}
	scale := mustGetFloat64(cmd, "scale")
	cameraID := mustGetString(cmd, "camera-id")
	if cameraID == "" {
		cameraID = dir + device
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.cache.Refresh(ctx, tenant); err != nil {
		return fmt.Errorf("load encodings: %w", err)
	}
	fmt.Printf("Loaded %d known encodings for tenant %s\n", a.cache.Get(tenant).Len(), tenant)

	var src recognition.FrameSource
	if dir != "" {
		ds, err := recognition.NewDirSource(dir, scale)
		if err != nil {
			return err
		}
		fmt.Printf("Reading %d frames from %s\n", ds.Len(), dir)
		src = ds
	} else {
		src, err = camera.Open(device, scale)
		if err != nil {
			return err
		}
	}

	var annotator recognition.Annotator = recognition.LogAnnotator{Logger: a.logger}
	if mustGetBool(cmd, "show") {
		annotator, err = camera.Display("FaceTrace " + cameraID)
		if err != nil {
			src.Close()
			return err
		}
		if c, ok := annotator.(io.Closer); ok {
			defer c.Close()
		}
	}

	refresher := cache.NewRefresher(a.cache, tenant, a.cfg.Recognition.RefreshInterval(), a.logger)
	if err := refresher.Start(); err != nil {
		src.Close()
		return err
	}
	defer refresher.Stop()

	var punched, rejected atomic.Int64
	committer := recognition.NewCommitter(ctx, a.service, a.employees, recognition.CommitterOptions{
		Workers:   a.cfg.Recognition.CommitWorkers,
		QueueSize: constants.CommitQueueSize,
		Logger:    a.logger,
		OnDecision: func(d recognition.Decision) {
			switch {
			case d.Err == nil:
				punched.Add(1)
				p := d.Punch
				fmt.Printf("%s  %-3s  %s (%.1f%%)\n",
					p.Timestamp.In(a.service.Policy().Location).Format("15:04:05"), p.Type, p.EmployeeID, p.Confidence)
			case attendance.IsRejection(d.Err):
				rejected.Add(1)
			}
		},
	})

	pipeline := recognition.NewPipeline(recognition.Options{
		TenantID:            tenant,
		CameraID:            cameraID,
		Tolerance:           a.cfg.Recognition.Tolerance,
		ConfidenceThreshold: a.cfg.Attendance.ConfidenceThreshold,
		FrameStride:         a.cfg.Recognition.FrameStride,
		AttemptInterval:     a.cfg.Recognition.AttemptInterval(),
	}, a.cache, a.extractor, committer, annotator, a.logger)

	runErr := pipeline.Run(ctx, src)
	committer.Close()

	st := pipeline.Stats()
	fmt.Printf("\nFrames read: %d, processed: %d, failed: %d\n", st.FramesRead, st.FramesProcessed, st.FramesFailed)
	fmt.Printf("Faces: %d, matched: %d, submitted: %d\n", st.Faces, st.Matched, st.Submitted)
	fmt.Printf("Punches: %d, rejected: %d\n", punched.Load(), rejected.Load())
	return runErr
}
