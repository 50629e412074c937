package session

import (
	"context"

	"git.home.luguber.info/inful/accctl/internal/accd"
	"git.home.luguber.info/inful/accctl/internal/logfields"
	"git.home.luguber.info/inful/accctl/internal/metrics"
)

// ApplyProfile reads the named snapshot, pushes every field group and then
// records the profile as selected, whatever the push outcome.
func (s *Session) ApplyProfile(ctx context.Context, name string) (accd.ApplyResult, error) {
	cfg, err := s.profiles.Read(ctx, name)
	if err != nil {
		return accd.ApplyResult{}, err
	}
	res := s.push(ctx, cfg)

	selected := name
	if err := s.prefs.SetSelectedProfile(&selected); err != nil {
		return res, err
	}

	switch {
	case res.Successful():
		s.recorder.IncProfileApply(metrics.ResultSuccess)
		s.logger.Info("Profile applied", logfields.Profile(name))
	case res.VoltControlFailed():
		s.recorder.IncProfileApply(metrics.ResultVoltageFailed)
		s.logger.Warn("Profile applied without voltage limit", logfields.Profile(name))
	default:
		s.recorder.IncProfileApply(metrics.ResultFailed)
		first, _ := res.FirstFailure()
		s.logger.Warn("Profile partially applied",
			logfields.Profile(name),
			logfields.Group(first.Group),
			logfields.Command(first.Command))
	}
	return res, nil
}

// SaveProfile stores the current live config under name.
func (s *Session) SaveProfile(ctx context.Context, name string) error {
	return s.profiles.Create(ctx, name, s.Config())
}

// RenameProfile renames a stored profile and follows the selection along.
func (s *Session) RenameProfile(ctx context.Context, oldName, newName string) error {
	if err := s.profiles.Rename(ctx, oldName, newName); err != nil {
		return err
	}
	if sel := s.SelectedProfile(); sel != nil && *sel == oldName {
		return s.prefs.SetSelectedProfile(&newName)
	}
	return nil
}

// DeleteProfile removes a stored profile and drops it from the selection.
func (s *Session) DeleteProfile(ctx context.Context, name string) error {
	if err := s.profiles.Delete(ctx, name); err != nil {
		return err
	}
	if sel := s.SelectedProfile(); sel != nil && *sel == name {
		return s.prefs.SetSelectedProfile(nil)
	}
	return nil
}
