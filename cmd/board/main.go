package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"taskboard-api/pkg/client"
	"taskboard-api/pkg/event"
	"taskboard-api/pkg/model"
	"taskboard-api/utils"
)

// Terminal consumer of the board store: loads the three columns, follows
// the realtime feed, and reprints on every state change. Mostly a smoke
// harness for the client half.
func main() {
	utils.GetLogger()

	baseURL := utils.LoadDotEnvOr("BOARD_API_URL", "http://localhost:8080")
	gateway := client.NewHTTPGateway(baseURL)

	os.Exit(run(baseURL, gateway))
}

func run(baseURL string, gateway *client.HTTPGateway) int {
	store := client.NewStore(gateway)
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := store.LoadMore(ctx, true); err != nil {
		log.Error().Err(err).Msg("Initial load failed")
	}
	store.RefreshCounts(ctx)
	render(store)

	realtime := client.NewRealtime(baseURL)
	release, err := realtime.Subscribe(event.Scope{Table: event.TableTasks}, func(ev event.ChangeEvent) {
		store.Notify(ev)
	})
	if err != nil {
		log.Error().Err(err).Msg("Realtime subscription failed; board will not live-update")
	} else {
		defer release()
	}

	refresh := time.NewTicker(2 * time.Second)
	defer refresh.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-quit:
			return 0
		case <-refresh.C:
			render(store)
		}
	}
}

func render(store *client.Store) {
	if store == nil {
		return
	}
	fmt.Print("\033[2J\033[H")
	for _, status := range model.BoardStatuses {
		fmt.Printf("== %s (%d) ==\n", status.Label(), store.Count(status))
		for _, t := range store.Tasks(status) {
			fmt.Printf("  %-40s %-12s %s\n", truncate(t.Title, 40), t.Category, t.AmountDisplay)
		}
		if store.HasMore(status) {
			fmt.Println("  ...")
		}
		fmt.Println()
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
