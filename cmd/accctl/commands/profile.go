package commands

import (
	"context"

	"git.home.luguber.info/inful/accctl/internal/profile"
	"git.home.luguber.info/inful/accctl/internal/server/responses"
)

// ProfileCmd implements the 'profile' command group.
type ProfileCmd struct {
	List   ProfileListCmd   `cmd:"" default:"1" help:"List profiles in display order"`
	Show   ProfileShowCmd   `cmd:"" help:"Print a stored profile"`
	Save   ProfileSaveCmd   `cmd:"" help:"Store the live config, or a JSON file, under a name"`
	Rename ProfileRenameCmd `cmd:"" help:"Rename a profile"`
	Delete ProfileDeleteCmd `cmd:"" help:"Delete a profile"`
	Apply  ProfileApplyCmd  `cmd:"" help:"Push a stored profile to the daemon and select it"`
}

type ProfileListCmd struct{}

func (p *ProfileListCmd) Run(g *Global, root *CLI) error {
	return withApp(g, root, func(ctx context.Context, a *app) error {
		names, err := a.profiles.List(ctx)
		if err != nil {
			return err
		}
		return printJSON(g.out(), responses.ProfileListResponse{Profiles: nonNil(names), Selected: a.session.SelectedProfile()})
	})
}

type ProfileShowCmd struct {
	Name string `arg:"" help:"Profile name"`
}

func (p *ProfileShowCmd) Run(g *Global, root *CLI) error {
	return withApp(g, root, func(ctx context.Context, a *app) error {
		cfg, err := a.profiles.Read(ctx, p.Name)
		if err != nil {
			return err
		}
		return printJSON(g.out(), responses.ProfileResponse{Name: p.Name, Config: cfg})
	})
}

type ProfileSaveCmd struct {
	Name string `arg:"" help:"Profile name"`
	File string `help:"JSON config to store instead of the live config" type:"existingfile"`
}

func (p *ProfileSaveCmd) Run(g *Global, root *CLI) error {
	if err := profile.ValidateName(p.Name); err != nil {
		return err
	}
	return withApp(g, root, func(ctx context.Context, a *app) error {
		if p.File == "" {
			if err := a.session.SaveProfile(ctx, p.Name); err != nil {
				return err
			}
			return printJSON(g.out(), responses.ProfileResponse{Name: p.Name, Config: a.session.Config()})
		}
		cfg, err := readConfigJSON(p.File)
		if err != nil {
			return err
		}
		if err := a.profiles.Create(ctx, p.Name, cfg); err != nil {
			return err
		}
		return printJSON(g.out(), responses.ProfileResponse{Name: p.Name, Config: cfg})
	})
}

type ProfileRenameCmd struct {
	Name    string `arg:"" help:"Current name"`
	NewName string `arg:"" help:"New name"`
}

func (p *ProfileRenameCmd) Run(g *Global, root *CLI) error {
	return withApp(g, root, func(ctx context.Context, a *app) error {
		if err := a.session.RenameProfile(ctx, p.Name, p.NewName); err != nil {
			return err
		}
		return printJSON(g.out(), responses.SelectionResponse{Selected: a.session.SelectedProfile()})
	})
}

type ProfileDeleteCmd struct {
	Name string `arg:"" help:"Profile name"`
}

func (p *ProfileDeleteCmd) Run(g *Global, root *CLI) error {
	return withApp(g, root, func(ctx context.Context, a *app) error {
		if err := a.session.DeleteProfile(ctx, p.Name); err != nil {
			return err
		}
		return printJSON(g.out(), responses.SelectionResponse{Selected: a.session.SelectedProfile()})
	})
}

type ProfileApplyCmd struct {
	Name string `arg:"" help:"Profile name"`
}

func (p *ProfileApplyCmd) Run(g *Global, root *CLI) error {
	return withApp(g, root, func(ctx context.Context, a *app) error {
		res, err := a.session.ApplyProfile(ctx, p.Name)
		if err != nil {
			return err
		}
		if err := printJSON(g.out(), responses.NewApplyResponse(res)); err != nil {
			return err
		}
		return res.Err()
	})
}
