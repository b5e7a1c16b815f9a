package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	cl "kvartal/internal/cli"
	"kvartal/internal/config"
	"kvartal/internal/syncq"
)

func main() {
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL
	playerID := cfg.PlayerID

	root := &cobra.Command{
		Use:          "kvl",
		Short:        "Kvartal real-estate game client",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&playerID, "player", playerID, "player id (or KVL_PLAYER_ID)")

	root.AddCommand(
		newNewGameCmd(&apiBase, &playerID),
		newStateCmd(&apiBase, &playerID),
		newListingsCmd(&apiBase, &playerID),
		newBuyCmd(&apiBase, &playerID),
		newStrategyCmd(&apiBase, &playerID),
		newRenovateCmd(&apiBase, &playerID),
		newLoanCmd(&apiBase, &playerID),
		newEventsCmd(&apiBase, &playerID),
		newProgressionCmd(&apiBase, &playerID),
		newSyncCmd(&apiBase),
		newWatchCmd(&apiBase, &playerID),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func requirePlayer(playerID *string) (string, error) {
	id := strings.TrimSpace(*playerID)
	if id == "" {
		return "", fmt.Errorf("player id required: pass --player or set KVL_PLAYER_ID")
	}
	return id, nil
}

func cmdContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func newNewGameCmd(apiBase, playerID *string) *cobra.Command {
	var name, difficulty string
	c := &cobra.Command{
		Use:   "new",
		Short: "Start a new game",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).NewGame(ctx, strings.TrimSpace(*playerID), name, difficulty)
			if err != nil {
				return err
			}
			if player, ok := out["player"].(map[string]any); ok {
				printSuccess(fmt.Sprintf("Game created: player %v, cash %v", player["id"], player["cash"]))
			}
			return nil
		},
	}
	c.Flags().StringVar(&name, "name", "Инвестор", "player display name")
	c.Flags().StringVar(&difficulty, "difficulty", "normal", "easy, normal or hard")
	return c
}

func newStateCmd(apiBase, playerID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show player, portfolio and loans",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requirePlayer(playerID)
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Enter(ctx, id)
			if err != nil {
				return err
			}
			renderState(out)
			return nil
		},
	}
}

func newListingsCmd(apiBase, playerID *string) *cobra.Command {
	var refresh bool
	c := &cobra.Command{
		Use:   "listings",
		Short: "Show the market catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requirePlayer(playerID)
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Listings(ctx, id, refresh)
			if err != nil {
				return err
			}
			renderListings(out)
			return nil
		},
	}
	c.Flags().BoolVar(&refresh, "refresh", false, "regenerate the catalogue")
	return c
}

func newBuyCmd(apiBase, playerID *string) *cobra.Command {
	var mortgage bool
	c := &cobra.Command{
		Use:   "buy <listing-id>",
		Short: "Buy a listed property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requirePlayer(playerID)
			if err != nil {
				return err
			}
			idem := uuid.NewString()
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Buy(ctx, id, args[0], mortgage, idem)
			if err != nil {
				return queueOffline(err, "POST", "/v1/players/"+id+"/actions/buy",
					map[string]any{"listingId": args[0], "mortgage": mortgage}, idem)
			}
			renderResult(out)
			return nil
		},
	}
	c.Flags().BoolVar(&mortgage, "mortgage", false, "finance with a mortgage")
	return c
}

func newStrategyCmd(apiBase, playerID *string) *cobra.Command {
	var salePrice int64
	c := &cobra.Command{
		Use:   "strategy <property-id> <none|hold|rent|flip>",
		Short: "Set a property's strategy",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requirePlayer(playerID)
			if err != nil {
				return err
			}
			idem := uuid.NewString()
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).SetStrategy(ctx, id, args[0], args[1], salePrice, idem)
			if err != nil {
				return queueOffline(err, "POST", "/v1/players/"+id+"/actions/strategy",
					map[string]any{"propertyId": args[0], "strategy": args[1], "salePrice": salePrice}, idem)
			}
			renderResult(out)
			return nil
		},
	}
	c.Flags().Int64Var(&salePrice, "sale-price", 0, "asking price for flip (default: current value)")
	return c
}

func newRenovateCmd(apiBase, playerID *string) *cobra.Command {
	var tier string
	c := &cobra.Command{
		Use:   "renovate <property-id>",
		Short: "Start a renovation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requirePlayer(playerID)
			if err != nil {
				return err
			}
			idem := uuid.NewString()
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Renovate(ctx, id, args[0], tier, idem)
			if err != nil {
				return queueOffline(err, "POST", "/v1/players/"+id+"/actions/renovate",
					map[string]any{"propertyId": args[0], "tier": tier}, idem)
			}
			renderResult(out)
			return nil
		},
	}
	c.Flags().StringVar(&tier, "tier", "cosmetic", "cosmetic or major")
	return c
}

func newLoanCmd(apiBase, playerID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "loan <property-id>",
		Short: "Borrow against a property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requirePlayer(playerID)
			if err != nil {
				return err
			}
			idem := uuid.NewString()
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Borrow(ctx, id, args[0], idem)
			if err != nil {
				return queueOffline(err, "POST", "/v1/players/"+id+"/actions/loan",
					map[string]any{"propertyId": args[0]}, idem)
			}
			renderResult(out)
			return nil
		},
	}
}

func newEventsCmd(apiBase, playerID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Show the event log",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requirePlayer(playerID)
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Events(ctx, id)
			if err != nil {
				return err
			}
			renderEvents(out)
			return nil
		},
	}
}

func newProgressionCmd(apiBase, playerID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show missions and achievements",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requirePlayer(playerID)
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Progression(ctx, id)
			if err != nil {
				return err
			}
			renderProgression(out)
			return nil
		},
	}
}

func newSyncCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay actions queued while offline",
		RunE: func(cmd *cobra.Command, args []string) error {
			queued, err := syncq.Load()
			if err != nil {
				return err
			}
			if len(queued) == 0 {
				printSuccess("Queue empty.")
				return nil
			}
			client := newClient(apiBase)
			var remaining []syncq.Command
			success := 0
			for _, q := range queued {
				ctx, cancel := cmdContext(cmd)
				_, err := client.Replay(ctx, q.Method, q.Path, q.Body, q.IdempotencyKey)
				cancel()
				if err != nil {
					remaining = append(remaining, q)
					printError(fmt.Sprintf("Sync failed for %s %s: %v", q.Method, q.Path, err))
					continue
				}
				success++
			}
			if err := syncq.Save(remaining); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Sync complete: replayed=%d remaining=%d", success, len(remaining)))
			return nil
		},
	}
}

// queueOffline stashes a failed action for later replay and tells the user.
func queueOffline(cause error, method, path string, body map[string]any, idem string) error {
	if err := syncq.Push(syncq.Command{
		Method:         method,
		Path:           path,
		Body:           body,
		IdempotencyKey: idem,
	}); err != nil {
		return fmt.Errorf("%v (queueing also failed: %w)", cause, err)
	}
	printWarn(fmt.Sprintf("API unreachable (%v). Action queued; run `kvl sync` later.", cause))
	return nil
}
