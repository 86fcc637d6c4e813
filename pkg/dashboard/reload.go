package dashboard

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/mhviz/pkg/watcher"
)

// Watch reloads store whenever one of paths changes, until ctx is cancelled.
func Watch(ctx context.Context, store *Store, paths []string, opts ...watcher.WatcherOption) (*watcher.Watcher, error) {
	opts = append(opts,
		watcher.WithOnChange(func(paths []string) {
			names := make([]string, len(paths))
			for i, p := range paths {
				names[i] = filepath.Base(p)
			}
			store.logger.Printf("%s changed, reloading datasets", strings.Join(names, ", "))
			if err := store.Reload(ctx); err != nil {
				store.logger.Printf("reload failed: %v", err)
			}
		}),
		watcher.WithOnError(func(err error) {
			store.logger.Printf("watch: %v", err)
		}),
	)

	w, err := watcher.NewWatcher(paths, opts...)
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		return nil, err
	}
	go func() {
		<-ctx.Done()
		w.Stop()
	}()
	return w, nil
}
