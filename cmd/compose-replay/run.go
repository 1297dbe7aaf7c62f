package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-compose/internal/config"
	"github.com/teslashibe/go-compose/internal/log"
	"github.com/teslashibe/go-compose/pkg/composer"
	"github.com/teslashibe/go-compose/pkg/feed"
	"github.com/teslashibe/go-compose/pkg/protocol"
	"github.com/teslashibe/go-compose/pkg/votes"
)

type runOptions struct {
	template string
	fps      float64
	remote   string
	tuning   string
	smart    int
	jsonOut  bool
	timeout  time.Duration
}

// replayFrame is one image of the sequence.
type replayFrame struct {
	path   string
	format string
	data   []byte
}

func newRunCmd() *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run <dir>",
		Short: "Replay the images in a directory in name order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			frames, err := loadFrames(args[0])
			if err != nil {
				return err
			}
			if opts.fps <= 0 {
				return fmt.Errorf("--fps must be positive")
			}
			if opts.remote != "" {
				return runRemote(cmd.Context(), cmd.OutOrStdout(), frames, opts)
			}
			return runLocal(cmd.Context(), cmd.OutOrStdout(), frames, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.template, "template", "t", "rule_of_thirds", "template id")
	cmd.Flags().Float64Var(&opts.fps, "fps", 30, "frame rate used for timestamps")
	cmd.Flags().StringVar(&opts.remote, "remote", "", "composer camera endpoint, e.g. ws://localhost:8090/ws/camera/replay")
	cmd.Flags().StringVar(&opts.tuning, "tuning", "", "TOML tuning file (local mode)")
	cmd.Flags().IntVar(&opts.smart, "smart-compose-at", 0, "start smart compose before this frame number (0 disables)")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print one JSON guidance object per frame")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 2*time.Second, "per-frame reply timeout (remote mode)")
	return cmd
}

// loadFrames reads every jpeg, png and webp file in dir, sorted by name.
func loadFrames(dir string) ([]replayFrame, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var frames []replayFrame
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		format := formatFor(e.Name())
		if format == "" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		frames = append(frames, replayFrame{path: path, format: format, data: data})
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no jpeg, png or webp images in %s", dir)
	}
	sort.Slice(frames, func(i, j int) bool { return frames[i].path < frames[j].path })
	return frames, nil
}

func formatFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return protocol.FormatJPEG
	case ".png":
		return protocol.FormatPNG
	case ".webp":
		return protocol.FormatWebP
	}
	return ""
}

func runLocal(ctx context.Context, out io.Writer, frames []replayFrame, opts runOptions) error {
	cfg := composer.DefaultConfig()
	if opts.tuning != "" {
		t, err := config.LoadTuning(opts.tuning)
		if err != nil {
			return err
		}
		if err := t.Apply(&cfg); err != nil {
			return err
		}
	}

	logger := log.Component("replay")
	session := composer.NewSession("replay", cfg, nil, logger)
	scorer := votes.NewScorer(cfg.Votes)
	interval := time.Duration(float64(time.Second) / opts.fps)
	start := time.Now()

	for i, f := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := i + 1
		if n == opts.smart {
			d, err := session.StartSmartCompose(scorer, "", 0)
			if err != nil {
				logger.Warn("smart compose not started", "error", err)
			} else {
				logger.Info("smart compose started", "template", d.Template, "reason", d.Reason)
			}
		}

		fd := protocol.FrameData{FrameID: uint64(n), Format: f.format, Template: opts.template}
		msg, err := protocol.NewFrameMessage(fd, f.data)
		if err != nil {
			return err
		}
		encoded, err := msg.GetFrameData()
		if err != nil {
			return err
		}

		res, ok, err := session.Process(start.Add(time.Duration(i)*interval), encoded)
		if err != nil {
			logger.Warn("skipping frame", "file", f.path, "error", err)
			continue
		}
		if !ok {
			continue
		}
		if err := report(out, f.path, protocol.GuidanceFromOutput(res), opts.jsonOut); err != nil {
			return err
		}
		if res.Zoom != nil {
			logger.Info("zoom", "frame", n, "target", res.Zoom.Zoom, "zoom", session.Zoom().Zoom())
		}
	}
	return nil
}

func runRemote(ctx context.Context, out io.Writer, frames []replayFrame, opts runOptions) error {
	logger := log.Component("replay")
	client, err := feed.Dial(ctx, opts.remote, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.SetTemplate(opts.template); err != nil {
		return err
	}
	interval := time.Duration(float64(time.Second) / opts.fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i, f := range frames {
		n := i + 1
		if n == opts.smart {
			if err := client.SmartCompose(protocol.SmartComposeStart, "", 0); err != nil {
				return err
			}
		}

		id, err := client.SendFrame(protocol.FrameData{Format: f.format}, f.data)
		if err != nil {
			return err
		}
		g, err := awaitGuidance(ctx, client, id, opts.timeout, logger)
		if err != nil {
			return fmt.Errorf("frame %s: %w", f.path, err)
		}
		if g != nil {
			if err := report(out, f.path, *g, opts.jsonOut); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// awaitGuidance waits for the guidance reply to frame id, logging any
// other replies on the way. A server error for the frame yields nil.
func awaitGuidance(ctx context.Context, client *feed.Client, id uint64, timeout time.Duration, logger *slog.Logger) (*protocol.GuidanceData, error) {
	deadline := time.After(timeout)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, fmt.Errorf("no guidance within %v", timeout)
		case r, ok := <-client.Replies():
			if !ok {
				return nil, fmt.Errorf("connection closed")
			}
			switch r.Type {
			case protocol.TypeGuidance:
				if r.Guidance.FrameID == id {
					return r.Guidance, nil
				}
			case protocol.TypeZoom:
				logger.Info("zoom", "zoom", r.Zoom.Zoom, "template", r.Zoom.Template)
			case protocol.TypeReacquire:
				logger.Info("reacquire", "x", r.Reacquire.Point.X, "y", r.Reacquire.Point.Y)
			case protocol.TypeError:
				logger.Warn("server error", "code", r.Error.Code, "message", r.Error.Message)
				return nil, nil
			}
		}
	}
}

func report(out io.Writer, path string, g protocol.GuidanceData, jsonOut bool) error {
	if jsonOut {
		return json.NewEncoder(out).Encode(struct {
			File string `json:"file"`
			protocol.GuidanceData
		}{filepath.Base(path), g})
	}
	hold := ""
	if g.Holding {
		hold = " hold"
	}
	_, err := fmt.Fprintf(out, "%-24s %-18s dx=%+.3f dy=%+.3f strength=%.3f conf=%.2f%s\n",
		filepath.Base(path), g.Template, g.DX, g.DY, g.Strength, g.Confidence, hold)
	return err
}
