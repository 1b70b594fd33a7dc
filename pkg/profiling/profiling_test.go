package profiling

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledProfilerIsSilent(t *testing.T) {
	defaultProfiler.reset()

	stop := Start("census")
	stop.Stop()

	var buf bytes.Buffer
	Summarize(&buf)
	assert.Empty(t, buf.String())
}

func TestSummarizeListsSpansInStartOrder(t *testing.T) {
	defaultProfiler.reset()
	Enable()

	pass := Start("pass")
	census := Start("census")
	time.Sleep(time.Millisecond)
	census.Stop()
	assemble := Start("assemble")
	assemble.Stop()
	pass.Stop()

	var buf bytes.Buffer
	Summarize(&buf)
	out := buf.String()

	require.Contains(t, out, "pass")
	censusIdx := strings.Index(out, "census")
	assembleIdx := strings.Index(out, "assemble")
	require.NotEqual(t, -1, censusIdx)
	require.NotEqual(t, -1, assembleIdx)
	assert.Less(t, censusIdx, assembleIdx)

	// Nested spans indent one level under their parent.
	assert.Contains(t, out, "\n- pass")
	assert.Contains(t, out, "\n  - census")
}

func TestSpansStartedBeforeEnableAreDropped(t *testing.T) {
	defaultProfiler.reset()

	early := Start("early")
	Enable()
	early.Stop()
	late := Start("late")
	late.Stop()

	var buf bytes.Buffer
	Summarize(&buf)
	out := buf.String()
	assert.NotContains(t, out, "early")
	assert.Contains(t, out, "late")
}

func TestEnableTwiceKeepsFirstBaseline(t *testing.T) {
	defaultProfiler.reset()
	Enable()
	began := defaultProfiler.began
	Enable()
	assert.True(t, began.Equal(defaultProfiler.began))
}
