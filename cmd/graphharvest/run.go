package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"graphharvest/pkg/auth"
	"graphharvest/pkg/collector"
	"graphharvest/pkg/config"
	"graphharvest/pkg/export"
	"graphharvest/pkg/graph"
	"graphharvest/pkg/harvest"
	"graphharvest/pkg/logger"
	"graphharvest/pkg/metrics"
	"graphharvest/pkg/ratelimit"
	"graphharvest/pkg/retry"
	"graphharvest/pkg/ui"
)

// collectFunc runs one harvest operation over ids
type collectFunc func(ctx context.Context, svc *harvest.Service, ids []string) (*harvest.Result, error)

// session is everything a collection command needs, built from config
type session struct {
	cfg      *config.Config
	log      logger.Logger
	service  *harvest.Service
	recorder *metrics.Recorder
	progress *ui.Progress
}

// observers fans page, stop and row events out to several sinks
type observers []interface {
	collector.PageObserver
	harvest.Observer
}

func (o observers) ObservePage(edge string, records int) {
	for _, obs := range o {
		obs.ObservePage(edge, records)
	}
}

func (o observers) ObserveStop(operation string, reason string) {
	for _, obs := range o {
		obs.ObserveStop(operation, reason)
	}
}

func (o observers) ObserveRows(operation string, n int) {
	for _, obs := range o {
		obs.ObserveRows(operation, n)
	}
}

// newSession loads configuration, resolves the access token and wires the
// client, governor, collector and service.
func newSession(cmd *cobra.Command, operation string) (*session, error) {
	cfg, err := config.Load(configFile, flagOverrides(cmd))
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger().WithField("operation", operation)

	token, err := resolveToken(cfg, log)
	if err != nil {
		return nil, err
	}

	limiter, err := ratelimit.New(cfg.RateLimit.Strategy, cfg.RateLimit.RequestsPerHour, cfg.RateLimit.BurstSize)
	if err != nil {
		return nil, err
	}

	recorder := metrics.New()
	progress := ui.NewProgress(os.Stderr, operation, quiet)
	fanout := observers{recorder, progress}

	clientOpts := []graph.ClientOption{
		graph.WithRequestObserver(recorder),
		graph.WithClientLogger(log),
	}
	if limiter != nil {
		clientOpts = append(clientOpts, graph.WithLimiter(limiter))
	}
	client := graph.NewClient(cfg.Graph, graph.StaticToken(token), clientOpts...)

	gov := retry.NewGovernor(
		retry.Budget{MaxWait: cfg.Retry.MaxWait, WaitInterval: cfg.Retry.WaitInterval},
		retry.WithThrottleCodes(cfg.Retry.ThrottleCodes),
		retry.WithObserver(recorder),
		retry.WithLogger(log),
	)

	coll := collector.New(client, gov, log, collector.WithPageObserver(fanout))
	svc := harvest.NewService(coll, cfg, harvest.WithObserver(fanout), harvest.WithLogger(log))

	return &session{
		cfg:      cfg,
		log:      log,
		service:  svc,
		recorder: recorder,
		progress: progress,
	}, nil
}

// resolveToken picks the access token: --account, then config/env/flag,
// then the default stored account.
func resolveToken(cfg *config.Config, log logger.Logger) (string, error) {
	if accountName == "" && cfg.Graph.AccessToken != "" {
		log.Debug("Using access token from configuration")
		return cfg.Graph.AccessToken, nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return "", fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var account *auth.Account
	if accountName != "" {
		account, err = manager.Retrieve(accountName)
	} else {
		account, err = manager.RetrieveDefault()
	}
	if err != nil {
		if errors.Is(err, auth.ErrCredentialsNotFound) {
			return "", fmt.Errorf("no access token found; run 'graphharvest auth login' or set GRAPHHARVEST_ACCESS_TOKEN")
		}
		return "", err
	}

	log.WithField("account", account.Name).Info("Using stored credentials")
	return account.AccessToken, nil
}

// runCollect executes collect over ids and exports the rows. An interrupted
// run still exports what it collected.
func runCollect(cmd *cobra.Command, operation string, ids []string, collect collectFunc) error {
	if len(ids) == 0 {
		return errors.New("no ids given")
	}

	s, err := newSession(cmd, operation)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	metricsCtx, stopMetrics := context.WithCancel(ctx)
	defer stopMetrics()
	if s.cfg.Metrics.Addr != "" {
		go func() {
			if err := s.recorder.Serve(metricsCtx, s.cfg.Metrics.Addr, s.log); err != nil {
				s.log.WithError(err).Error("Metrics endpoint failed")
			}
		}()
	}

	res, err := collect(ctx, s.service, ids)
	s.progress.Finish()
	if err != nil {
		if res == nil || !errors.Is(err, context.Canceled) {
			return err
		}
		ui.PrintWarning("Interrupted, exporting partial results", len(res.Rows))
	}

	for _, f := range res.Failures {
		s.log.WithError(f.Err).WarnWithFields("Collection failed", map[string]interface{}{
			"id":     f.ID,
			"reason": string(f.Reason),
			"status": f.Status.String(),
		})
	}

	out := s.cfg.Output
	if strings.TrimSpace(out.Path) == "" {
		if !quiet {
			ui.PrintInfo("Rows collected", fmt.Sprintf("%d (no --output, nothing written)", len(res.Rows)))
		}
		return nil
	}

	// The export runs to completion even after an interrupt.
	if err := export.Save(context.WithoutCancel(ctx), res.Rows, out.Path, export.Options{
		SheetName: out.SheetName,
		TableName: out.TableName,
		Overwrite: out.Overwrite,
	}); err != nil {
		return fmt.Errorf("failed to export rows: %w", err)
	}

	if !quiet {
		ui.PrintSuccess(fmt.Sprintf("Wrote %d rows to %s", len(res.Rows), out.Path))
	}
	if len(res.Failures) > 0 {
		ui.PrintWarning("Some ids failed", len(res.Failures))
	}
	return nil
}

// readIDs merges positional ids with ids read from path, one per line.
// Blank lines and lines starting with # are skipped.
func readIDs(args []string, path string) ([]string, error) {
	ids := append([]string(nil), args...)
	if path == "" {
		return ids, nil
	}

	f := os.Stdin
	if path != "-" {
		var err error
		f, err = os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open ids file: %w", err)
		}
		defer f.Close()
	}

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ids file: %w", err)
	}
	return ids, nil
}
