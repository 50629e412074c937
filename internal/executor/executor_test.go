package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/accctl/internal/metrics"
)

func TestShellExecute(t *testing.T) {
	sh := NewShell([]string{"sh", "-c"})

	t.Run("captures output lines", func(t *testing.T) {
		res := sh.Execute(context.Background(), "echo one", "echo two")
		require.True(t, res.Success)
		assert.Equal(t, 0, res.ExitCode)
		assert.Equal(t, []string{"one", "two"}, res.Output)
		assert.Equal(t, "one\ntwo", res.Text())
	})

	t.Run("reports exit code", func(t *testing.T) {
		res := sh.Execute(context.Background(), "exit 3")
		assert.False(t, res.Success)
		assert.Equal(t, 3, res.ExitCode)
	})

	t.Run("empty invocation succeeds", func(t *testing.T) {
		assert.True(t, sh.Execute(context.Background()).Success)
	})

	t.Run("canceled context stops the command", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		start := time.Now()
		res := sh.Execute(ctx, "sleep 5")
		assert.False(t, res.Success)
		assert.Less(t, time.Since(start), 4*time.Second)
	})
}

func TestShellMissingBinary(t *testing.T) {
	sh := NewShell([]string{"/nonexistent/shell-binary", "-c"})
	res := sh.Execute(context.Background(), "true")
	assert.False(t, res.Success)
	assert.Equal(t, -1, res.ExitCode)
}

func TestFakeRules(t *testing.T) {
	f := NewFake().
		OnOutput("acc -i", "STATUS=Charging").
		OnFail("acc -s s", 2)
	f.OnFail("acc -s s-", 5)

	res := f.Execute(context.Background(), "acc -i")
	assert.True(t, res.Success)
	assert.Equal(t, []string{"STATUS=Charging"}, res.Output)

	// Most recent matching rule wins.
	assert.Equal(t, 5, f.Execute(context.Background(), "acc -s s-").ExitCode)
	assert.Equal(t, 2, f.Execute(context.Background(), "acc -s s usb/x").ExitCode)

	// Unmatched commands succeed silently.
	assert.True(t, f.Execute(context.Background(), "djs i o").Success)

	assert.Equal(t, []string{"acc -i", "acc -s s-", "acc -s s usb/x", "djs i o"}, f.Calls())
	assert.Len(t, f.CallsWithPrefix("acc -s"), 2)

	f.Reset()
	assert.Empty(t, f.Calls())
}

func TestAsync(t *testing.T) {
	f := NewFake().OnOutput("acc -D", "accd is running")
	ch := Async(context.Background(), f, "acc -D")

	select {
	case res := <-ch:
		assert.True(t, res.Success)
		assert.Equal(t, "accd is running", res.Text())
	case <-time.After(2 * time.Second):
		t.Fatal("async result not delivered")
	}
}

type countingRecorder struct {
	metrics.NoopRecorder
	names   []string
	success []bool
}

func (c *countingRecorder) ObserveCommand(name string, _ time.Duration, ok bool) {
	c.names = append(c.names, name)
	c.success = append(c.success, ok)
}

func TestInstrumentedRecordsCommands(t *testing.T) {
	rec := &countingRecorder{}
	f := NewFake().OnFail("acc -s temp", 1)
	ex := NewInstrumented(f, rec, nil)

	assert.True(t, ex.Execute(context.Background(), "acc -s capacity 5,60,70-80").Success)
	assert.False(t, ex.Execute(context.Background(), "acc -s temp 400-450_90").Success)

	assert.Equal(t, []string{"acc -s", "acc -s"}, rec.names)
	assert.Equal(t, []bool{true, false}, rec.success)
	assert.Len(t, f.Calls(), 2)
}

func TestCommandName(t *testing.T) {
	assert.Equal(t, "empty", commandName(nil))
	assert.Equal(t, "acc", commandName([]string{"acc"}))
	assert.Equal(t, "acc -s", commandName([]string{"acc -s capacity 5,60,70-80"}))
	assert.Equal(t, "djs i", commandName([]string{"djs i o", "djs i d"}))
}
