package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/matzehuels/molforge/pkg/errors"
)

// watchDebounce batches the bursts of events editors emit on save.
const watchDebounce = 300 * time.Millisecond

// watchBuild builds once, then rebuilds whenever the recipe, the topology
// file or a block file changes. It blocks until ctx is cancelled.
func (c *CLI) watchBuild(ctx context.Context, cmd *cobra.Command, recipePath string, opts buildOpts) error {
	plan, err := c.planBuild(cmd, recipePath, opts)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	files, err := watchFiles(watcher, plan.inputs)
	if err != nil {
		return err
	}

	if _, err := c.runBuild(ctx, cmd, recipePath, opts); err != nil {
		printError("%s", errors.UserMessage(err))
	}
	printInfo("Watching %d file(s) for changes (Ctrl+C to stop)", len(files))

	return watchLoop(ctx, watcher, files, func(changed []string) {
		for _, f := range changed {
			printDetail("changed: %s", f)
		}
		if _, err := c.runBuild(ctx, cmd, recipePath, opts); err != nil {
			printError("%s", errors.UserMessage(err))
		}
	})
}

// watchFiles watches the directories of paths, since editors often replace
// a file instead of writing it in place. It returns the set of absolute
// paths to react to.
func watchFiles(w *fsnotify.Watcher, paths []string) (map[string]bool, error) {
	files := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		files[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
		dirs[dir] = true
	}
	return files, nil
}

// watchLoop calls rebuild with the changed files once events stop arriving
// for watchDebounce.
func watchLoop(ctx context.Context, w *fsnotify.Watcher, files map[string]bool, rebuild func(changed []string)) error {
	changed := make(map[string]bool)
	timer := time.NewTimer(watchDebounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !files[abs] {
				continue
			}
			changed[abs] = true
			timer.Reset(watchDebounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			printWarning("watch error: %v", err)

		case <-timer.C:
			if len(changed) == 0 {
				continue
			}
			batch := make([]string, 0, len(changed))
			for f := range changed {
				batch = append(batch, f)
			}
			slices.Sort(batch)
			changed = make(map[string]bool)
			rebuild(batch)
		}
	}
}
