package commands

import (
	"context"
	"fmt"
)

type ChurchesCmd struct{}

// Run lists the user's churches; the active one is marked with *.
func (c *ChurchesCmd) Run(ctx context.Context, g *Globals) error {
	return g.within(ctx, func(r *run) error {
		list, err := r.layer.Resolver.UserChurches(ctx)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Fprintln(g.Out, "You do not belong to any church.")
			return nil
		}
		activeID, _ := r.layer.Resolver.CurrentChurchID()
		w := g.table()
		fmt.Fprintln(w, "\tID\tCHURCH\tROLE")
		for _, m := range list {
			mark := ""
			if m.ChurchID == activeID {
				mark = "*"
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", mark, m.ChurchID, m.ChurchName, m.Role)
		}
		return w.Flush()
	})
}

type UseCmd struct {
	ChurchID uint64 `arg:"" name:"church-id" help:"Church to make active"`
}

func (u *UseCmd) Run(ctx context.Context, g *Globals) error {
	return g.within(ctx, func(r *run) error {
		active, err := r.layer.Resolver.SetActiveChurch(ctx, u.ChurchID)
		if err != nil {
			return err
		}
		fmt.Fprintf(g.Out, "Active church: %s (%d) as %s\n", active.Name, active.ChurchID, active.Role)
		return nil
	})
}

type BranchesCmd struct{}

func (b *BranchesCmd) Run(ctx context.Context, g *Globals) error {
	return g.within(ctx, func(r *run) error {
		list, err := value(r.layer.Queries.Branches(ctx))
		if err != nil {
			return err
		}
		w := g.table()
		fmt.Fprintln(w, "ID\tNAME\tCITY\tSTATE")
		for _, c := range list {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", c.ID, c.Name, c.City, c.State)
		}
		return w.Flush()
	})
}
