package commands

import (
	"context"
	"time"

	"git.home.luguber.info/inful/accctl/internal/foundation/errors"
	"git.home.luguber.info/inful/accctl/internal/schedule"
	"git.home.luguber.info/inful/accctl/internal/server/responses"
)

// ScheduleCmd implements the 'schedule' command group.
type ScheduleCmd struct {
	List   ScheduleListCmd   `cmd:"" default:"1" help:"List scheduled jobs"`
	Add    ScheduleAddCmd    `cmd:"" help:"Schedule a command, a stored profile or the live config"`
	Delete ScheduleDeleteCmd `cmd:"" help:"Cancel a scheduled job"`
	Edit   ScheduleEditCmd   `cmd:"" help:"Replace the command of a scheduled job"`
}

type ScheduleListCmd struct {
	Class string `help:"Only list once or daily jobs"`
}

func (s *ScheduleListCmd) Run(g *Global, root *CLI) error {
	return withApp(g, root, func(ctx context.Context, a *app) error {
		var items []schedule.Schedule
		if s.Class == "" {
			items = a.schedules.ListAll(ctx)
		} else {
			once, err := schedule.ParseClass(s.Class)
			if err != nil {
				return err
			}
			items = a.schedules.List(ctx, once)
		}
		if items == nil {
			items = []schedule.Schedule{}
		}
		return printJSON(g.out(), responses.ScheduleListResponse{Schedules: items})
	})
}

type ScheduleAddCmd struct {
	At      string `arg:"" help:"Time of day as HH:MM"`
	Command string `arg:"" optional:"" help:"Shell command to run"`
	Once    bool   `help:"Run once instead of daily"`
	Profile string `help:"Schedule the commands that apply this stored profile"`
	Current bool   `help:"Schedule the commands that apply the live config"`
}

func (s *ScheduleAddCmd) Run(g *Global, root *CLI) error {
	hour, minute, err := parseClock(s.At)
	if err != nil {
		return err
	}
	sources := 0
	for _, set := range []bool{s.Command != "", s.Profile != "", s.Current} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return errors.ValidationError("schedule needs exactly one of a command, --profile or --current").Build()
	}

	return withApp(g, root, func(ctx context.Context, a *app) error {
		var added bool
		switch {
		case s.Command != "":
			added, err = a.schedules.Add(ctx, s.Once, hour, minute, s.Command)
		case s.Profile != "":
			cfg, rerr := a.profiles.Read(ctx, s.Profile)
			if rerr != nil {
				return rerr
			}
			added, err = a.schedules.AddConfig(ctx, s.Once, hour, minute, cfg)
		default:
			added, err = a.schedules.AddConfig(ctx, s.Once, hour, minute, a.session.Config())
		}
		if err != nil {
			return err
		}
		id := schedule.ID(hour, minute)
		if !added {
			return errors.ExecutionError("djs rejected the job").WithContext("id", id).Build()
		}
		created, found := a.schedules.Find(s.Once, id)
		if !found {
			created = schedule.Schedule{ID: id, ExecuteOnce: s.Once, Hour: hour, Minute: minute, Command: s.Command}
		}
		return printJSON(g.out(), created)
	})
}

// parseClock reads an HH:MM time of day.
func parseClock(s string) (hour, minute int, err error) {
	t, perr := time.Parse("15:04", s)
	if perr != nil {
		return 0, 0, errors.ValidationError("time must be HH:MM").WithContext("value", s).Build()
	}
	return t.Hour(), t.Minute(), nil
}

type ScheduleDeleteCmd struct {
	Class string `arg:"" enum:"once,daily" help:"once or daily"`
	ID    string `arg:"" help:"Job id (HHMM)"`
}

func (s *ScheduleDeleteCmd) Run(g *Global, root *CLI) error {
	once, err := schedule.ParseClass(s.Class)
	if err != nil {
		return err
	}
	return withApp(g, root, func(ctx context.Context, a *app) error {
		deleted, err := a.schedules.Delete(ctx, once, s.ID)
		if err != nil {
			return err
		}
		return reportResult(g, deleted, "delete schedule "+s.ID)
	})
}

type ScheduleEditCmd struct {
	Class   string `arg:"" enum:"once,daily" help:"once or daily"`
	ID      string `arg:"" help:"Job id (HHMM)"`
	Command string `arg:"" help:"New shell command"`
}

func (s *ScheduleEditCmd) Run(g *Global, root *CLI) error {
	once, err := schedule.ParseClass(s.Class)
	if err != nil {
		return err
	}
	return withApp(g, root, func(ctx context.Context, a *app) error {
		a.schedules.Refresh(ctx)
		current, found := a.schedules.Find(once, s.ID)
		if !found {
			return errors.NotFoundError("schedule").
				WithContext("class", s.Class).
				WithContext("id", s.ID).Build()
		}
		edited, err := a.schedules.EditCommand(ctx, current, s.Command)
		if err != nil {
			return err
		}
		if !edited {
			return errors.ExecutionError("djs rejected the job").WithContext("id", s.ID).Build()
		}
		current.Command = s.Command
		return printJSON(g.out(), current)
	})
}
