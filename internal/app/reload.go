package app

import (
	"context"
	"strings"
	"time"

	"jumbotron/internal/config"
	logx "jumbotron/pkg/logx"
)

// reloadLoop applies published configs. Logging and periodic cues change live;
// other sections are logged as needing a restart.
// baseline is the config in effect when sub was created.
func (a *App) reloadLoop(ctx context.Context, sub <-chan *config.Config, baseline *config.Config) {
	lastApplied := baseline
	for {
		var newCfg *config.Config
		select {
		case <-ctx.Done():
			return
		case c, ok := <-sub:
			if !ok {
				return
			}
			newCfg = c
		}
		// Keep only the newest of a burst.
	drain:
		for {
			select {
			case newer := <-sub:
				if newer != nil {
					newCfg = newer
				}
			default:
				break drain
			}
		}
		if newCfg == nil {
			continue
		}

		sections, attrs := config.SummarizeConfigChange(lastApplied, newCfg)
		if len(sections) == 0 {
			a.log.Info("config reloaded (no changes)")
			lastApplied = newCfg
			continue
		}
		a.apply(ctx, sections, newCfg)
		lastApplied = newCfg

		fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
		a.log.Info("config reloaded", fields...)
		if rr := config.RestartRequired(sections); len(rr) > 0 {
			a.log.Warn("restart required for some config changes", logx.String("sections", strings.Join(rr, ",")))
		}
	}
}

func (a *App) apply(ctx context.Context, sections []string, cfg *config.Config) {
	for _, s := range sections {
		switch s {
		case "logging":
			lc, err := mapLogConfig(cfg)
			if err != nil {
				a.log.Warn("invalid logging config; keeping previous", logx.Err(err))
				continue
			}
			if err := a.logs.Apply(lc); err != nil {
				a.log.Warn("log file unavailable; console only", logx.Err(err))
			}
		case "periodic":
			if err := a.restartPeriodic(ctx, cfg); err != nil {
				a.log.Warn("invalid periodic config; keeping previous", logx.Err(err))
			}
		}
	}
}

func (a *App) restartPeriodic(ctx context.Context, cfg *config.Config) error {
	next, err := a.newPeriodic(cfg)
	if err != nil {
		return err
	}
	a.pmu.Lock()
	defer a.pmu.Unlock()

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	a.periodic.Stop(stopCtx)
	cancel()

	a.periodic = next
	return next.Start(ctx)
}
