package commands

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openfroyo/variantspace/pkg/policy"
)

const watchDebounce = 300 * time.Millisecond

func newWatchCommand() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch [path...]",
		Short: "Re-resolve variants when declarations or policies change",
		Example: `  # Watch declarations and policies, serving metrics
  variants watch --policy ./policies --metrics-addr :9090 ./components`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			sources := sourcesFrom(args)

			if metricsAddr != "" {
				go func() {
					if err := a.tel.Metrics.Serve(ctx, metricsAddr); err != nil {
						log.Error().Err(err).Str("addr", metricsAddr).Msg("Metrics server failed")
					}
				}()
			}

			reload := make(chan struct{}, 1)
			trigger := func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			}

			if len(policyPaths) > 0 {
				policyLoader := policy.NewLoader(a.tel.Logger.Zerolog())
				err := policyLoader.Watch(ctx, policyPaths, func(policies []policy.Policy) error {
					if err := a.policies.ReplacePolicies(ctx, policies); err != nil {
						return err
					}
					trigger()
					return nil
				})
				if err != nil {
					return err
				}
				defer policyLoader.StopWatching()
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer watcher.Close()

			for _, source := range sources {
				if err := addWatch(watcher, source); err != nil {
					return err
				}
			}

			a.resolveOnce(ctx, sources)

			var debounce *time.Timer
			for {
				select {
				case <-ctx.Done():
					return nil

				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if event.Op&fsnotify.Create != 0 {
						if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
							_ = addWatch(watcher, event.Name)
						}
					}
					if !isDeclarationFile(event.Name) {
						continue
					}
					if debounce != nil {
						debounce.Stop()
					}
					debounce = time.AfterFunc(watchDebounce, trigger)

				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					log.Warn().Err(err).Msg("Watcher error")

				case <-reload:
					a.resolveOnce(ctx, sources)
				}
			}
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	return cmd
}

// resolveOnce resolves sources and prints the plan. Failures are logged so
// the watch keeps running.
func (a *app) resolveOnce(ctx context.Context, sources []string) {
	plan, err := a.resolver.Resolve(ctx, sources)

	status := "success"
	if err != nil {
		status = "failure"
	}
	a.tel.Metrics.RecordReload(status)
	_ = a.tel.Events.PublishDeclarationReloaded(sources, err)

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Resolution failed")
		}
		return
	}

	if jsonOutput {
		_ = writeJSON(os.Stdout, plan)
		return
	}
	printPlan(os.Stdout, plan, false)
}

func addWatch(watcher *fsnotify.Watcher, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return watcher.Add(path)
	}
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(p)
		}
		return nil
	})
}

func isDeclarationFile(name string) bool {
	for _, suffix := range []string{".cue", ".yaml", ".yml"} {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
