package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"bbsave/config"
	"bbsave/tables"
	"bbsave/watcher"
)

// watch reports on every save the game writes in dir until interrupted.
func watch(cfg *config.Config, dir string) error {
	t, err := tables.Load(cfg.Resource_dir(config.FILENAME))
	if err != nil {
		return err
	}
	fmt.Println("Watching", dir, "for", cfg.Watch.Pattern)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reports := make(chan *watcher.Report)
	w := watcher.New_watcher(dir, cfg.Watch, t, cfg.Policy)
	err = w.Start_watching(reports)
	if err != nil {
		return err
	}
	defer w.Stop_watching()

	for {
		select {
		case r := <-reports:
			fmt.Println(r.Filename + ":")
			for _, line := range r.Changes {
				fmt.Println("   " + line)
			}
			fmt.Println()
		case <-ctx.Done():
			fmt.Println("Stopped watching")
			return nil
		}
	}
}

func list_watched(dir string) error {
	state, err := watcher.Get_state(dir)
	if err != nil {
		return err
	}
	if len(state.Seen) == 0 {
		fmt.Println("(no characters seen yet)")
		return nil
	}
	for _, identity := range state.Identities() {
		fmt.Println(identity, "-", len(state.Seen[identity].Bosses), "bosses known")
	}
	return nil
}
