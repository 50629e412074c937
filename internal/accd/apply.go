package accd

import (
	"context"

	"git.home.luguber.info/inful/accctl/internal/acc"
	"git.home.luguber.info/inful/accctl/internal/foundation/errors"
	"git.home.luguber.info/inful/accctl/internal/logfields"
)

// GroupResult is the outcome of pushing one field group.
type GroupResult struct {
	Group    string `json:"group"`
	Command  string `json:"command"`
	Success  bool   `json:"success"`
	ExitCode int    `json:"exitCode"`
}

// ApplyResult collects the per-group outcomes of a full config push.
type ApplyResult struct {
	Groups []GroupResult `json:"groups"`
}

// Successful reports whether every group was pushed.
func (r ApplyResult) Successful() bool {
	for _, g := range r.Groups {
		if !g.Success {
			return false
		}
	}
	return true
}

// VoltControlFailed reports the voltage-limit push failing, which usually
// means the device lacks the requested control file.
func (r ApplyResult) VoltControlFailed() bool {
	return !r.Succeeded(acc.GroupVoltControl)
}

// Succeeded reports the outcome of one group; groups not pushed count as successful.
func (r ApplyResult) Succeeded(group string) bool {
	for _, g := range r.Groups {
		if g.Group == group {
			return g.Success
		}
	}
	return true
}

// FirstFailure returns the earliest failed group, if any.
func (r ApplyResult) FirstFailure() (GroupResult, bool) {
	for _, g := range r.Groups {
		if !g.Success {
			return g, true
		}
	}
	return GroupResult{}, false
}

// Err is nil when every group was pushed, otherwise a command error for the first failure.
func (r ApplyResult) Err() error {
	failed, ok := r.FirstFailure()
	if !ok {
		return nil
	}
	return errors.CommandError(failed.Command, failed.ExitCode).
		WithContext("group", failed.Group).
		Build()
}

// ApplyConfig pushes every field group of cfg, one command each, and keeps
// going after failures so every group reports its own outcome.
func (c *Client) ApplyConfig(ctx context.Context, cfg acc.Config) ApplyResult {
	groups := acc.GroupCommands(cfg)
	res := ApplyResult{Groups: make([]GroupResult, 0, len(groups))}
	for _, g := range groups {
		out := c.exec.Execute(ctx, g.Command)
		res.Groups = append(res.Groups, GroupResult{
			Group:    g.Group,
			Command:  g.Command,
			Success:  out.Success,
			ExitCode: out.ExitCode,
		})
		if !out.Success {
			c.logger.Warn("Config group push failed",
				logfields.Group(g.Group),
				logfields.Command(g.Command),
				logfields.ExitCode(out.ExitCode))
		}
	}
	return res
}
