package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/accctl/internal/acc"
	"git.home.luguber.info/inful/accctl/internal/accd"
	"git.home.luguber.info/inful/accctl/internal/executor"
	"git.home.luguber.info/inful/accctl/internal/foundation/errors"
	"git.home.luguber.info/inful/accctl/internal/preferences"
	"git.home.luguber.info/inful/accctl/internal/profile"
)

type fixture struct {
	session  *Session
	exec     *executor.Fake
	prefs    *preferences.JSONStore
	profiles *profile.FSStore
	cfgPath  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		exec:    executor.NewFake(),
		prefs:   preferences.NewMemory(),
		cfgPath: filepath.Join(dir, "config.txt"),
	}
	store, err := profile.NewFSStore(filepath.Join(dir, "profiles"))
	require.NoError(t, err)
	f.profiles = store
	f.session = New(accd.New(f.exec, f.cfgPath), store, f.prefs)
	return f
}

func (f *fixture) selectProfile(t *testing.T, name string) {
	t.Helper()
	require.NoError(t, f.prefs.SetSelectedProfile(&name))
}

func TestLoadFallsBackToDefault(t *testing.T) {
	f := newFixture(t)

	cfg, fallback := f.session.Load(context.Background())
	assert.True(t, fallback)
	assert.Equal(t, acc.DefaultConfig(), cfg)
	assert.True(t, f.session.UsingFallback())

	require.NoError(t, os.WriteFile(f.cfgPath, []byte("capacity=0,101,40-60\n"), 0o600))
	cfg, fallback = f.session.Load(context.Background())
	assert.False(t, fallback)
	assert.Equal(t, 60, cfg.Capacity.Pause)
	assert.Equal(t, cfg, f.session.Config())
}

func TestEveryLiveEditClearsSelection(t *testing.T) {
	ctx := context.Background()
	edits := map[string]func(s *Session){
		"capacity": func(s *Session) {
			_, _ = s.SetCapacity(ctx, acc.Capacity{Shutdown: 5, CoolDown: 60, Resume: 70, Pause: 80})
		},
		"cooldown":        func(s *Session) { s.SetCooldown(ctx, &acc.Cooldown{ChargeSeconds: 50, PauseSeconds: 10}) },
		"clear cooldown":  func(s *Session) { s.SetCooldown(ctx, nil) },
		"temp":            func(s *Session) { s.SetTemp(ctx, acc.Temp{CoolDownTemp: 40, PauseChargingTemp: 45, WaitSeconds: 90}) },
		"reset unplugged": func(s *Session) { s.SetResetUnplugged(ctx, true) },
		"on boot exit":    func(s *Session) { s.SetOnBootExit(ctx, true) },
		"on boot":         func(s *Session) { s.SetOnBoot(ctx, acc.Ptr("echo hi")) },
		"on plugged":      func(s *Session) { s.SetOnPlugged(ctx, nil) },
		"volt":            func(s *Session) { s.SetVoltControl(ctx, &acc.VoltControl{MaxMilliVolts: acc.Ptr(4200)}) },
		"switch":          func(s *Session) { s.SetChargingSwitch(ctx, acc.Ptr("usb 1 0")) },
		"apply config":    func(s *Session) { _, _ = s.ApplyConfig(ctx, acc.DefaultConfig()) },
	}
	for name, edit := range edits {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.selectProfile(t, "night")
			edit(f.session)
			assert.Nil(t, f.session.SelectedProfile())
		})
	}
}

func TestFailedEditStillClearsSelection(t *testing.T) {
	f := newFixture(t)
	f.exec.OnFail("acc -s temp", 1)
	f.selectProfile(t, "night")

	assert.False(t, f.session.SetTemp(context.Background(), acc.Temp{CoolDownTemp: 10, PauseChargingTemp: 20, WaitSeconds: 1}))
	assert.Nil(t, f.session.SelectedProfile())
	assert.Equal(t, acc.DefaultConfig().Temp, f.session.Config().Temp)
}

func TestWriteRawConfigClearsSelectionAndReloads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	written, err := f.session.WriteRawConfig(ctx, []string{"capacity=5,101,40-60"})
	require.NoError(t, err)
	assert.False(t, written, "config.txt is never created")

	require.NoError(t, os.WriteFile(f.cfgPath, []byte("capacity=5,60,70-80\n"), 0o600))
	f.selectProfile(t, "night")
	written, err = f.session.WriteRawConfig(ctx, []string{"capacity=5,101,40-60", ""})
	require.NoError(t, err)
	assert.True(t, written)
	assert.Nil(t, f.session.SelectedProfile())
	assert.Equal(t, 60, f.session.Config().Capacity.Pause)
	assert.False(t, f.session.UsingFallback())
}

func TestWriteRawConfigKeepsSelectionWhenNothingWritten(t *testing.T) {
	f := newFixture(t)
	f.selectProfile(t, "night")

	written, err := f.session.WriteRawConfig(context.Background(), []string{"capacity=5,101,40-60"})
	require.NoError(t, err)
	assert.False(t, written)
	require.NotNil(t, f.session.SelectedProfile())
	assert.Equal(t, "night", *f.session.SelectedProfile())
}

func TestSetCapacityValidatesBeforeExecuting(t *testing.T) {
	f := newFixture(t)
	f.selectProfile(t, "night")

	ok, err := f.session.SetCapacity(context.Background(), acc.Capacity{Shutdown: 90, CoolDown: 60, Resume: 70, Pause: 80})
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	assert.Empty(t, f.exec.Calls())
	require.NotNil(t, f.session.SelectedProfile())
}

func TestSuccessfulEditsUpdateCurrentConfig(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.True(t, f.session.SetCooldown(ctx, nil))
	assert.Nil(t, f.session.Config().Cooldown)

	assert.True(t, f.session.SetResetUnplugged(ctx, true))
	assert.True(t, f.session.Config().ResetUnplugged)
	assert.True(t, f.prefs.Get().ResetUnplugged)

	sw := "usb 1 0"
	assert.True(t, f.session.SetChargingSwitch(ctx, &sw))
	sw = "changed"
	assert.Equal(t, "usb 1 0", *f.session.Config().ChargingSwitch)

	assert.Equal(t, []string{"acc -s coolDown", "acc -s resetUnplugged true", "acc -s s usb 1 0"}, f.exec.Calls())
}

func TestApplyProfileSetsSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cfg := acc.DefaultConfig()
	cfg.Capacity.Pause = 90
	require.NoError(t, f.profiles.Create(ctx, "travel", cfg))

	res, err := f.session.ApplyProfile(ctx, "travel")
	require.NoError(t, err)
	assert.True(t, res.Successful())
	require.NotNil(t, f.session.SelectedProfile())
	assert.Equal(t, "travel", *f.session.SelectedProfile())
	assert.Equal(t, 90, f.session.Config().Capacity.Pause)
	assert.Equal(t, acc.Commands(cfg), f.exec.Calls())
}

func TestApplyProfileWithMissingVoltFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cfg := acc.DefaultConfig()
	cfg.VoltControl = &acc.VoltControl{ControlFile: acc.Ptr("/sys/does/not/exist"), MaxMilliVolts: acc.Ptr(4100)}
	require.NoError(t, f.profiles.Create(ctx, "volt", cfg))
	f.exec.OnFail("acc --set cVolt", 1)

	res, err := f.session.ApplyProfile(ctx, "volt")
	require.NoError(t, err)
	assert.False(t, res.Successful())
	assert.True(t, res.VoltControlFailed())
	for _, g := range res.Groups {
		if g.Group != acc.GroupVoltControl {
			assert.True(t, g.Success, g.Group)
		}
	}
	require.NotNil(t, f.session.SelectedProfile())
	assert.Equal(t, "volt", *f.session.SelectedProfile())
}

func TestApplyUnknownProfile(t *testing.T) {
	f := newFixture(t)
	_, err := f.session.ApplyProfile(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
	assert.Empty(t, f.exec.Calls())
}

func TestProfileLifecycleFollowsSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.session.SaveProfile(ctx, "day"))
	_, err := f.session.ApplyProfile(ctx, "day")
	require.NoError(t, err)

	require.NoError(t, f.session.RenameProfile(ctx, "day", "daytime"))
	require.NotNil(t, f.session.SelectedProfile())
	assert.Equal(t, "daytime", *f.session.SelectedProfile())

	require.NoError(t, f.session.DeleteProfile(ctx, "daytime"))
	assert.Nil(t, f.session.SelectedProfile())
	names, err := f.profiles.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}
