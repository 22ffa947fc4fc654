package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/church-manager/internal/model"
)

type MembersCmd struct {
	Query    string `short:"q" help:"Filter by name or email"`
	Status   string `help:"Member status to filter by (active, inactive)" default:""`
	Leaders  bool   `help:"Only leaders" default:"false"`
	Page     int    `help:"Page number" default:"1"`
	PageSize int    `help:"Members per page" default:"20"`
}

func (m *MembersCmd) Run(ctx context.Context, g *Globals) error {
	f := model.MemberFilter{
		Query:       m.Query,
		Status:      strings.ToUpper(m.Status),
		LeadersOnly: m.Leaders,
		Page:        m.Page,
		PageSize:    m.PageSize,
	}
	return g.within(ctx, func(r *run) error {
		page, err := value(r.layer.Queries.Members(ctx, f))
		if err != nil {
			return err
		}
		if len(page.Items) == 0 {
			fmt.Fprintln(g.Out, "No members found.")
			return nil
		}
		w := g.table()
		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tSTATUS\tLEADER")
		for _, mem := range page.Items {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\n", mem.ID, mem.Name, mem.Email, mem.Status, mem.IsLeader)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(g.Out, "Page %d, %d of %d members\n", page.Page, len(page.Items), page.Total)
		return nil
	})
}

type DashboardCmd struct{}

func (d *DashboardCmd) Run(ctx context.Context, g *Globals) error {
	return g.within(ctx, func(r *run) error {
		dash, err := value(r.layer.Queries.MainDashboard(ctx))
		if err != nil {
			return err
		}
		w := g.table()
		fmt.Fprintf(w, "Members\t%d\n", dash.Members)
		fmt.Fprintf(w, "Visitors\t%d\n", dash.Visitors)
		fmt.Fprintf(w, "Ministries\t%d\n", dash.Ministries)
		fmt.Fprintf(w, "Activities\t%d\n", dash.Activities)
		fmt.Fprintf(w, "Pending prayers\t%d\n", dash.PendingPrayers)
		fmt.Fprintf(w, "Branches\t%d\n", dash.Branches)
		return w.Flush()
	})
}

type VisitorsCmd struct {
	Page     int `help:"Page number" default:"1"`
	PageSize int `help:"Visitors per page" default:"20"`
}

func (v *VisitorsCmd) Run(ctx context.Context, g *Globals) error {
	return g.within(ctx, func(r *run) error {
		list, err := value(r.layer.Queries.Visitors(ctx, model.PageFilter{Page: v.Page, PageSize: v.PageSize}))
		if err != nil {
			return err
		}
		w := g.table()
		fmt.Fprintln(w, "ID\tNAME\tPHONE\tVISITED")
		for _, vis := range list {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", vis.ID, vis.Name, vis.Phone, vis.VisitedAt.Format("2006-01-02"))
		}
		return w.Flush()
	})
}

type MinistriesCmd struct{}

func (m *MinistriesCmd) Run(ctx context.Context, g *Globals) error {
	return g.within(ctx, func(r *run) error {
		list, err := value(r.layer.Queries.Ministries(ctx))
		if err != nil {
			return err
		}
		w := g.table()
		fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
		for _, min := range list {
			fmt.Fprintf(w, "%d\t%s\t%s\n", min.ID, min.Name, min.Description)
		}
		return w.Flush()
	})
}

type ActivitiesCmd struct {
	From string `help:"Earliest start date (YYYY-MM-DD)" default:""`
	To   string `help:"Latest start date (YYYY-MM-DD)" default:""`
}

func (a *ActivitiesCmd) filter() (model.ActivityFilter, error) {
	var f model.ActivityFilter
	for _, b := range []struct {
		name string
		in   string
		dst  *time.Time
	}{{"from", a.From, &f.From}, {"to", a.To, &f.To}} {
		if b.in == "" {
			continue
		}
		t, err := time.Parse(time.DateOnly, b.in)
		if err != nil {
			return f, fmt.Errorf("invalid --%s: %w", b.name, err)
		}
		*b.dst = t
	}
	return f, nil
}

func (a *ActivitiesCmd) Run(ctx context.Context, g *Globals) error {
	f, err := a.filter()
	if err != nil {
		return err
	}
	return g.within(ctx, func(r *run) error {
		list, err := value(r.layer.Queries.Activities(ctx, f))
		if err != nil {
			return err
		}
		w := g.table()
		fmt.Fprintln(w, "ID\tTITLE\tSTARTS\tLOCATION")
		for _, act := range list {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", act.ID, act.Title, act.StartsAt.Format("2006-01-02 15:04"), act.Location)
		}
		return w.Flush()
	})
}

type PrayersCmd struct {
	Status string `help:"Prayer status to filter by (pending, praying, answered)" default:""`
}

func (p *PrayersCmd) Run(ctx context.Context, g *Globals) error {
	f := model.PrayerFilter{Status: strings.ToUpper(p.Status)}
	return g.within(ctx, func(r *run) error {
		list, err := value(r.layer.Queries.PrayerRequests(ctx, f))
		if err != nil {
			return err
		}
		w := g.table()
		fmt.Fprintln(w, "ID\tSTATUS\tCONTENT")
		for _, pr := range list {
			content := pr.Content
			if len(content) > 60 {
				content = content[:57] + "..."
			}
			fmt.Fprintf(w, "%d\t%s\t%s\n", pr.ID, pr.Status, content)
		}
		return w.Flush()
	})
}
