// Package sessionscmder provides the sessions command for listing the
// conversation graphs recorded in a spool store.
package sessionscmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/spool/cmd/spool/storepath"
	"github.com/papercomputeco/spool/pkg/cliui"
	"github.com/papercomputeco/spool/pkg/storage"
	"github.com/papercomputeco/spool/pkg/storage/sqlite"
)

const sessionsLongDesc string = `List the conversation graphs recorded in a spool store.

The first graph in the log is the root conversation; every other graph is an
embedded subagent conversation referenced by handle from a tool-response node.

Examples:
  spool sessions
  spool sessions --sqlite ./spool.db`

const sessionsShortDesc string = "List recorded conversation graphs"

func NewSessionsCmd() *cobra.Command {
	var sqlitePath string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: sessionsShortDesc,
		Long:  sessionsLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSessions(cmd.Context(), sqlitePath)
		},
	}

	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Path to the spool SQLite database")

	return cmd
}

type graphStat struct {
	id    string
	nodes int
	edges int
	slots int
}

func runSessions(ctx context.Context, sqlitePath string) error {
	path, err := storepath.ResolveStorePath(sqlitePath)
	if err != nil {
		return err
	}

	drv, err := sqlite.NewDriver(path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer drv.Close()

	var (
		order []string
		stats = make(map[string]*graphStat)
	)
	err = drv.Replay(ctx, func(rec *storage.Record) error {
		st, ok := stats[rec.GraphID]
		if !ok {
			st = &graphStat{id: rec.GraphID}
			stats[rec.GraphID] = st
			order = append(order, rec.GraphID)
		}
		switch rec.Kind {
		case storage.KindNodeCreated:
			st.nodes++
		case storage.KindEdgeAdded:
			st.edges++
		case storage.KindSlotVersionSet:
			st.slots++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("reading store: %w", err)
	}

	if len(order) == 0 {
		fmt.Printf("  %s Empty store: %s\n", cliui.DimStyle.Render("●"), path)
		return nil
	}

	fmt.Printf("\n  %s %s\n\n", cliui.KeyStyle.Render("Store:"), path)
	for i, id := range order {
		label := "subgraph"
		if i == 0 {
			label = "session "
		}
		st := stats[id]
		fmt.Printf("  %s %s  %s\n",
			cliui.RoleStyle.Render(label),
			cliui.IDStyle.Render(st.id),
			cliui.DimStyle.Render(fmt.Sprintf("%d nodes, %d edges, %d slot writes", st.nodes, st.edges, st.slots)),
		)
	}
	fmt.Println()
	return nil
}
