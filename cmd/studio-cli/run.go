package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/fpang/gemini-studio/internal/imaging"
	"github.com/fpang/gemini-studio/internal/workspace"
	"github.com/rs/zerolog/log"
)

// job is one image transformation: the events that configure the workspace
// after the image is loaded, then a single apply.
type job struct {
	input  string
	events []workspace.Event
}

// runJob loads the input into a fresh workspace, replays the job's events and
// applies the active tool. A precondition or event error is returned before
// any request is made.
func runJob(ctx context.Context, svc workspace.Transformer, j job, maxUpload int64) (workspace.State, error) {
	f, err := os.Open(j.input)
	if err != nil {
		return workspace.State{}, fmt.Errorf("open %s: %w", j.input, err)
	}
	data, err := imaging.ReadAll(f, maxUpload)
	f.Close()
	if err != nil {
		return workspace.State{}, err
	}

	upload, err := imaging.Inspect(data, maxUpload)
	if err != nil {
		return workspace.State{}, fmt.Errorf("%s: %w", j.input, err)
	}

	ctrl := workspace.NewController(svc)
	ctrl.Upload(upload.Image(), upload.Info(filepath.Base(j.input)))
	log.Debug().
		Str("path", j.input).
		Str("mime", upload.MIMEType).
		Int("width", upload.Width).
		Int("height", upload.Height).
		Msg("Image loaded")

	for _, e := range j.events {
		if st, err := ctrl.Dispatch(e); err != nil {
			return st, fmt.Errorf("invalid %T: %w", e, err)
		}
	}
	return ctrl.Apply(ctx)
}

// writeResult saves the transformed image. An empty path picks the download
// name in the current directory.
func writeResult(st workspace.State, path string, now time.Time) (string, error) {
	if st.Result == nil {
		return "", fmt.Errorf("no result to write")
	}
	if path == "" {
		path = workspace.DownloadFilename(st.Result.MIMEType, now)
	}
	if err := os.WriteFile(path, st.Result.Data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// writeComparison saves the before/after composite split at position.
func writeComparison(st workspace.State, path string, position float64) error {
	if err := workspace.Validate(workspace.ComparatorMoved{Position: position}); err != nil {
		return fmt.Errorf("position: %w", err)
	}
	if st.Source == nil || st.Result == nil {
		return fmt.Errorf("no result to compare")
	}
	data, err := imaging.ComposeBytes(st.Source.Data, st.Result.Data, position, 0)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// imageSize reads the pixel size from the image header.
func imageSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", path, imaging.ErrUnsupported)
	}
	return cfg.Width, cfg.Height, nil
}
