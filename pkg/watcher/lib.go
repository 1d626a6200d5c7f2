package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nxtcoder17/isserverup/pkg/executor"
)

// WatchAndExecute starts every executor, then hands each watch event to all
// of them. It returns once ctx is done and the event channel is drained.
func (f *Watcher) WatchAndExecute(ctx context.Context, executors []executor.Executor) error {
	var wg sync.WaitGroup

	for i := range executors {
		ex := executors[i]

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ex.Start(); err != nil {
				f.Logger.Error("executor start failed", "executor", i, "err", err)
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ctx.Done()
			ex.Stop()
			f.Logger.Debug("context done, executor stopped", "executor", i)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		f.Watch(ctx)
	}()

	pwd, err := os.Getwd()
	if err != nil {
		pwd = ""
	}

	counter := 0
	for event := range f.GetEvents() {
		name := event.Name
		if pwd != "" {
			if rel, err := filepath.Rel(pwd, event.Name); err == nil {
				name = rel
			}
		}

		counter += 1
		f.Logger.Info(fmt.Sprintf("[RE-CHECKING (%d)] due to changes in %s", counter, name))

		for i := range executors {
			if err := executors[i].OnWatchEvent(executor.Event{Source: event.Name}); err != nil {
				f.Logger.Error("executor failed on event", "executor", i, "err", err)
			}
		}
	}

	wg.Wait()

	return nil
}
