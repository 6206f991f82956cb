package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"timelines/internal/captions"
	"timelines/internal/config"
	"timelines/internal/logging"
	"timelines/internal/metrics"
	"timelines/internal/pipeline"
	"timelines/internal/store"
)

type matchFailure struct {
	VideoID string `json:"video_id"`
	Error   string `json:"error"`
}

type matchReport struct {
	Results  []*pipeline.Result `json:"results"`
	Failures []matchFailure     `json:"failures,omitempty"`
}

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var videoIDs []string
	var jsonOutput bool
	var noSave bool
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "match [caption files...]",
		Short: "Match dated caption events against Wikipedia",
		Long: "Run the matching pipeline over local caption files (timed-text XML or .srt)\n" +
			"and/or captions downloaded with --video. Results are stored unless --no-save is set.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && len(videoIDs) == 0 {
				return errors.New("provide caption files or at least one --video id")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			var s *store.Store
			if !noSave {
				lock := flock.New(cfg.LockPath())
				ok, err := lock.TryLock()
				if err != nil {
					return fmt.Errorf("acquire data lock: %w", err)
				}
				if !ok {
					return fmt.Errorf("another timelines match is running (lock %s)", cfg.LockPath())
				}
				defer func() { _ = lock.Unlock() }()
			}
			if !noSave || cfg.Wikipedia.CacheEnabled {
				s, err = store.Open(cfg)
				if err != nil {
					return err
				}
				defer s.Close()
			}

			reg := prometheus.NewRegistry()
			recorder := metrics.New(reg)
			addr := strings.TrimSpace(metricsAddr)
			if addr == "" {
				addr = cfg.Metrics.ListenAddr
			}
			if addr != "" {
				stop, err := serveMetrics(addr, reg, logger)
				if err != nil {
					return fmt.Errorf("serve metrics: %w", err)
				}
				defer stop()
			}

			videos, fetchFailures, err := loadVideos(cmd.Context(), cfg, args, videoIDs)
			if err != nil {
				return err
			}
			p, err := ctx.buildPipeline(cfg, s, recorder, logger)
			if err != nil {
				return err
			}

			outcomes := p.RunBatch(cmd.Context(), videos)
			report := matchReport{Results: []*pipeline.Result{}, Failures: fetchFailures}
			for _, outcome := range outcomes {
				if outcome.Err != nil {
					report.Failures = append(report.Failures, matchFailure{VideoID: outcome.VideoID, Error: outcome.Err.Error()})
					continue
				}
				report.Results = append(report.Results, outcome.Result)
				if !noSave {
					if err := saveResult(cmd.Context(), s, outcome.Result); err != nil {
						return err
					}
				}
			}

			if jsonOutput {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				printMatchReport(cmd.OutOrStdout(), report, shouldColorize(cmd.OutOrStdout()))
			}
			if err := cmd.Context().Err(); err != nil {
				return err
			}
			if len(report.Failures) > 0 {
				logFailures(logger, report.Failures)
				return fmt.Errorf("%d of %d videos failed", len(report.Failures), len(outcomes)+len(fetchFailures))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&videoIDs, "video", nil, "Video id whose captions are downloaded (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Do not store results")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")
	return cmd
}

// loadVideos reads caption files (the video id is the file name without its
// extension) and downloads captions for each requested video id. A failed
// download is reported for that video and does not stop the others.
func loadVideos(ctx context.Context, cfg *config.Config, paths, videoIDs []string) ([]pipeline.Video, []matchFailure, error) {
	videos := make([]pipeline.Video, 0, len(paths)+len(videoIDs))
	for _, path := range paths {
		expanded, err := config.ExpandPath(path)
		if err != nil {
			return nil, nil, err
		}
		chunks, err := captions.LoadFile(expanded)
		if err != nil {
			return nil, nil, err
		}
		base := filepath.Base(expanded)
		videos = append(videos, pipeline.Video{
			ID:     strings.TrimSuffix(base, filepath.Ext(base)),
			Source: expanded,
			Chunks: chunks,
		})
	}
	if len(videoIDs) == 0 {
		return videos, nil, nil
	}
	client, err := newCaptionsClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	var failures []matchFailure
	for _, id := range videoIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		chunks, err := client.Fetch(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			failures = append(failures, matchFailure{VideoID: id, Error: fmt.Sprintf("fetch captions: %v", err)})
			continue
		}
		videos = append(videos, pipeline.Video{ID: id, Source: "timedtext:" + id, Chunks: chunks})
	}
	return videos, failures, nil
}

func saveResult(ctx context.Context, s *store.Store, result *pipeline.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	total, matched := result.Counts()
	return s.SaveResult(ctx, &store.Result{
		VideoID:      result.VideoID,
		RunID:        result.RunID,
		Source:       result.Source,
		EventCount:   total,
		MatchedCount: matched,
		Payload:      payload,
	})
}

func printMatchReport(out io.Writer, report matchReport, colorize bool) {
	for i, result := range report.Results {
		if i > 0 {
			fmt.Fprintln(out)
		}
		printResult(out, result, colorize)
	}
	for _, failure := range report.Failures {
		fmt.Fprintf(out, "%s: failed: %s\n", failure.VideoID, failure.Error)
	}
}

func printResult(out io.Writer, result *pipeline.Result, colorize bool) {
	total, matched := result.Counts()
	fmt.Fprintf(out, "%s  run %s  %d events, %d matched\n", result.VideoID, result.RunID, total, matched)
	rows := make([][]string, 0, total)
	for _, ev := range result.Flatten() {
		match, score, via := "-", "-", "-"
		if ev.Match != nil {
			match = ev.Match.Text
			score = formatScore(ev.Match.Score)
			via = viaLabel(ev.Match.ViaItem)
		}
		rows = append(rows, []string{
			ev.Key(),
			formatOffset(ev.Start),
			dash(ev.DateTag),
			dash(ev.Text),
			renderStatus(ev.Status, colorize),
			match,
			score,
			via,
			strconv.Itoa(len(ev.Candidates)),
		})
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "No dated events found")
		return
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Event", "At", "Date", "Mention", "Status", "Match", "Score", "Via", "Candidates"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight},
	))
}

func logFailures(logger *slog.Logger, failures []matchFailure) {
	for _, failure := range failures {
		logging.ErrorWithContext(logger, "video run failed", "video_failed",
			logging.String(logging.FieldVideoID, failure.VideoID),
			logging.String("error_message", failure.Error),
		)
	}
}
