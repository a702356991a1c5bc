package enhancer

import (
	"context"
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/enrich/response"
)

func TestMetadataEnhancer_Defaults(t *testing.T) {
	clock := newClock()
	e := NewMetadataEnhancer(DefaultMetadataConfig(), WithMetadataClock(clock.Now))

	assert.Equal(t, MetadataEnhancerName, e.Name())
	assert.Equal(t, PriorityHigh, e.Priority())
	assert.Empty(t, e.Dependencies())

	ec := &ExecContext{
		Session:            &Session{ID: "sess-1"},
		SessionID:          "ignored",
		Operation:          "commit",
		User:               "alice",
		Source:             &Source{Tool: "enrich", Version: "1.2.0"},
		OperationStartTime: clock.Now().Add(-1500 * time.Millisecond),
	}
	out, err := e.Enhance(context.Background(), response.Success("ok", nil), ec)
	require.NoError(t, err)

	md := out.Metadata
	assert.Equal(t, "2026-10-15T12:00:00Z", md["enhancedAt"])
	assert.Equal(t, "sess-1", md["sessionId"])
	assert.Equal(t, int64(1500), md["operationDuration"])
	assert.Equal(t, "commit", md["operation"])
	assert.Equal(t, "alice", md["user"])
	assert.Equal(t, map[string]any{"tool": "enrich", "version": "1.2.0"}, md["source"])

	system, ok := md["system"].(map[string]any)
	require.True(t, ok, "system = %T", md["system"])
	assert.Equal(t, runtime.GOOS, system["platform"])
	assert.Equal(t, runtime.NumCPU(), system["cpus"])

	process, ok := md["process"].(map[string]any)
	require.True(t, ok, "process = %T", md["process"])
	assert.Equal(t, os.Getpid(), process["pid"])
}

func TestMetadataEnhancer_Toggles(t *testing.T) {
	e := NewMetadataEnhancer(MetadataConfig{})
	out, err := e.Enhance(context.Background(), response.Success("ok", nil), nil)
	require.NoError(t, err)
	assert.Empty(t, out.Metadata)

	e = NewMetadataEnhancer(MetadataConfig{IncludeProcessInfo: true})
	out, err = e.Enhance(context.Background(), response.Success("ok", nil), &ExecContext{SessionID: "s"})
	require.NoError(t, err)
	assert.Contains(t, out.Metadata, "process")
	assert.NotContains(t, out.Metadata, "system")
	assert.NotContains(t, out.Metadata, "enhancedAt")
	assert.Equal(t, "s", out.Metadata["sessionId"])
}

func TestMetadataEnhancer_CustomMetadata(t *testing.T) {
	custom := map[string]any{
		"team":  "platform",
		"calls": MetadataFunc(func(ec *ExecContext) any { return ec.Operation + "!" }),
		"plain": func(*ExecContext) any { return 7 },
		"bad":   MetadataFunc(func(*ExecContext) any { panic("nope") }),
	}
	e := NewMetadataEnhancer(MetadataConfig{CustomMetadata: custom}, WithMetadataLogger(quietLogger()))

	// Later changes to the caller's map do not leak in.
	custom["late"] = true

	out, err := e.Enhance(context.Background(), response.Success("ok", nil), &ExecContext{Operation: "push"})
	require.NoError(t, err)

	assert.Equal(t, "platform", out.Metadata["team"])
	assert.Equal(t, "push!", out.Metadata["calls"])
	assert.Equal(t, 7, out.Metadata["plain"])
	assert.NotContains(t, out.Metadata, "bad")
	assert.NotContains(t, out.Metadata, "late")
}

func TestMetadataEnhancer_DisabledLeavesNoMetadata(t *testing.T) {
	meta := NewMetadataEnhancer(MetadataConfig{IncludeTimestamps: true, Config: Config{Disabled: true}})
	other := newFake("other", PriorityNormal, nil, writes("other", true))

	p, err := NewPipeline([]Enhancer{meta, other}, WithLogger(quietLogger()))
	require.NoError(t, err)

	out := p.Run(context.Background(), response.Success("ok", nil), &ExecContext{SessionID: "s"})
	assert.NotContains(t, out.Metadata, "enhancedAt")
	assert.NotContains(t, out.Metadata, "sessionId")
	assert.Equal(t, true, out.Metadata["other"])
}

func TestMetadataEnhancer_ConfigOverrides(t *testing.T) {
	e := NewMetadataEnhancer(MetadataConfig{Config: Config{Priority: 5, Dependencies: []string{"x"}}})
	assert.Equal(t, 5, e.Priority())
	assert.Equal(t, []string{"x"}, e.Dependencies())
}
