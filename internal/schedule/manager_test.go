package schedule

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/accctl/internal/acc"
	"git.home.luguber.info/inful/accctl/internal/executor"
	"git.home.luguber.info/inful/accctl/internal/foundation/errors"
)

// fakeDJS keeps jobs in memory and answers the djs text protocol.
type fakeDJS struct {
	mu   sync.Mutex
	jobs map[string]map[string]string // class -> HHMM -> command
}

var (
	addPattern    = regexp.MustCompile(`^djs ([od]) (\d{2}) (\d{2}) "(.*)"$`)
	cancelPattern = regexp.MustCompile(`^djs cancel (once|daily) (\d{4})$`)
)

func newFakeDJS() (*fakeDJS, *executor.Fake) {
	d := &fakeDJS{jobs: map[string]map[string]string{"o": {}, "d": {}}}
	f := executor.NewFake().OnFunc("djs", d.handle)
	return d, f
}

func (d *fakeDJS) handle(lines []string) executor.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	line := lines[0]
	switch {
	case strings.HasPrefix(line, "djs i "):
		class := strings.TrimPrefix(line, "djs i ")
		ids := make([]string, 0, len(d.jobs[class]))
		for id := range d.jobs[class] {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		out := []string{"# " + class + " jobs"}
		for _, id := range ids {
			out = append(out, fmt.Sprintf("%s: %s", id, d.jobs[class][id]))
		}
		return executor.Result{Success: true, Output: out}
	case addPattern.MatchString(line):
		m := addPattern.FindStringSubmatch(line)
		d.jobs[m[1]][m[2]+m[3]] = m[4]
		return executor.Result{Success: true}
	case cancelPattern.MatchString(line):
		m := cancelPattern.FindStringSubmatch(line)
		class := m[1][:1]
		if _, ok := d.jobs[class][m[2]]; !ok {
			return executor.Result{Success: false, ExitCode: 1}
		}
		delete(d.jobs[class], m[2])
		return executor.Result{Success: true}
	}
	return executor.Result{Success: false, ExitCode: 127}
}

func TestListAllEmpty(t *testing.T) {
	_, f := newFakeDJS()
	m := NewManager(f)
	assert.Empty(t, m.ListAll(context.Background()))
	assert.Empty(t, m.Cached())
}

func TestAddDailyThenList(t *testing.T) {
	_, f := newFakeDJS()
	m := NewManager(f)
	ctx := context.Background()

	ok, err := m.Add(ctx, false, 7, 30, "echo hi")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Contains(t, f.Calls(), `djs d 07 30 "echo hi"`)
	assert.Equal(t, []Schedule{{ID: "0730", ExecuteOnce: false, Hour: 7, Minute: 30, Command: "echo hi"}}, m.List(ctx, false))
	assert.Empty(t, m.List(ctx, true))
	assert.Len(t, m.Cached(), 1)
}

func TestListAllOrdersOnceBeforeDaily(t *testing.T) {
	_, f := newFakeDJS()
	m := NewManager(f)
	ctx := context.Background()

	_, _ = m.Add(ctx, false, 6, 0, "acc -s capacity 5,60,70-80")
	_, _ = m.Add(ctx, true, 22, 15, "acc -s capacity 5,60,75-80")

	all := m.ListAll(ctx)
	require.Len(t, all, 2)
	assert.True(t, all[0].ExecuteOnce)
	assert.Equal(t, "2215", all[0].ID)
	assert.False(t, all[1].ExecuteOnce)
	assert.Equal(t, "0600", all[1].ID)
	assert.Equal(t, ClassOnce, all[0].Class())
}

func TestAddSameTimeReplaces(t *testing.T) {
	_, f := newFakeDJS()
	m := NewManager(f)
	ctx := context.Background()

	_, _ = m.Add(ctx, true, 1, 2, "first")
	_, _ = m.Add(ctx, true, 1, 2, "second")
	got := m.List(ctx, true)
	require.Len(t, got, 1)
	assert.Equal(t, "second", got[0].Command)
}

func TestAddValidatesTime(t *testing.T) {
	_, f := newFakeDJS()
	m := NewManager(f)
	for _, tc := range [][2]int{{24, 0}, {-1, 0}, {0, 60}, {0, -5}} {
		ok, err := m.Add(context.Background(), false, tc[0], tc[1], "x")
		assert.False(t, ok)
		require.Error(t, err)
		assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	}
	assert.Empty(t, f.Calls())
}

func TestAddCommandsAndConfig(t *testing.T) {
	_, f := newFakeDJS()
	m := NewManager(f)
	ctx := context.Background()

	_, err := m.AddCommands(ctx, true, 8, 5, []string{"acc -s coolDown", "acc -f 90"})
	require.NoError(t, err)
	assert.Contains(t, f.Calls(), `djs o 08 05 "acc -s coolDown; acc -f 90"`)

	_, err = m.AddConfig(ctx, false, 23, 0, acc.DefaultConfig())
	require.NoError(t, err)
	daily := m.List(ctx, false)
	require.Len(t, daily, 1)
	assert.Equal(t, strings.Join(acc.Commands(acc.DefaultConfig()), "; "), daily[0].Command)
}

func TestDelete(t *testing.T) {
	_, f := newFakeDJS()
	m := NewManager(f)
	ctx := context.Background()
	_, _ = m.Add(ctx, false, 7, 30, "echo hi")

	ok, err := m.Delete(ctx, false, "0730")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, f.Calls(), "djs cancel daily 0730")
	assert.Empty(t, m.Cached())

	ok, err = m.Delete(ctx, false, "0730")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = m.Delete(ctx, true, "7:30")
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	_, err = m.Delete(ctx, true, "2500")
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestEditCommandPatchesCache(t *testing.T) {
	_, f := newFakeDJS()
	m := NewManager(f)
	ctx := context.Background()
	_, _ = m.Add(ctx, false, 7, 30, "echo hi")
	s, ok := m.Find(false, "0730")
	require.True(t, ok)

	f.Reset()
	ok, err := m.EditCommand(ctx, s, "echo bye")
	require.NoError(t, err)
	assert.True(t, ok)

	// Only the re-add ran: no re-listing.
	assert.Equal(t, []string{`djs d 07 30 "echo bye"`}, f.Calls())
	cached, _ := m.Find(false, "0730")
	assert.Equal(t, "echo bye", cached.Command)
	assert.Equal(t, "echo bye", m.List(ctx, false)[0].Command)
}

func TestQuoteEscapesShellMetacharacters(t *testing.T) {
	assert.Equal(t, `"echo hi"`, quote("echo hi"))
	assert.Equal(t, `"say \"hi\" \$HOME \`+"`"+`x\`+"`"+` a\\b"`, quote("say \"hi\" $HOME `x` a\\b"))
}

func TestParseListIgnoresNoise(t *testing.T) {
	got := parseList(true, []string{"", "no jobs", " 0905: acc -f 90", "12:30 nope", "2359: "})
	require.Len(t, got, 2)
	assert.Equal(t, Schedule{ID: "0905", ExecuteOnce: true, Hour: 9, Minute: 5, Command: "acc -f 90"}, got[0])
	assert.Equal(t, "2359", got[1].ID)
}

func TestParseClass(t *testing.T) {
	once, err := ParseClass("once")
	require.NoError(t, err)
	assert.True(t, once)
	once, err = ParseClass("Daily")
	require.NoError(t, err)
	assert.False(t, once)
	_, err = ParseClass("weekly")
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	_, err = ParseClass("")
	assert.Error(t, err)
	assert.Equal(t, "0730", ID(7, 30))
}
