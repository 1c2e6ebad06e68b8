package systems

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesta-engine/vesta/engine/resources"
)

func TestAudioSystemAcquireDecodes(t *testing.T) {
	sm, _ := newTestSystems(t, false)
	as := sm.AudioSystem

	buf, err := as.Acquire("chime", true)
	require.NoError(t, err)
	require.NotNil(t, buf)
	assert.Equal(t, "chime", buf.Name)

	waitCompleted(t, sm, 1)

	assert.Equal(t, uint32(0), buf.Generation)
	assert.Equal(t, resources.AudioFormatPCM, buf.Format)
	assert.Equal(t, uint8(1), buf.Channels)
	assert.Equal(t, uint32(8000), buf.SampleRate)
	assert.Equal(t, uint16(16), buf.BitsPerSample)
	assert.Equal(t, uint32(64), buf.FrameCount)
	assert.Len(t, buf.Samples, 128)
}

func TestAudioSystemReferenceCounting(t *testing.T) {
	sm, _ := newTestSystems(t, false)
	as := sm.AudioSystem

	first, err := as.Acquire("chime", true)
	require.NoError(t, err)
	second, err := as.Acquire("chime", true)
	require.NoError(t, err)
	assert.Same(t, first, second)

	waitCompleted(t, sm, 1)
	assert.Equal(t, uint64(1), sm.Loader.CompletedCount(), "two acquires run one load")

	as.Release("chime")
	assert.NotNil(t, first.Samples, "one reference left keeps the samples")

	as.Release("chime")
	assert.Nil(t, first.Samples)
	assert.Equal(t, resources.InvalidID, first.ID)
	assert.Equal(t, resources.InvalidID, first.Generation)
}

func TestAudioSystemAcquireMissingRollsBack(t *testing.T) {
	sm, _ := newTestSystems(t, false)
	as := sm.AudioSystem

	_, err := as.Acquire("silence", true)
	require.Error(t, err)
	assert.Zero(t, sm.Loader.Pending())

	buf, err := as.Acquire("chime", true)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), buf.ID, "the failed acquire must not leak its slot")
}

func TestAudioSystemReloadBumpsGeneration(t *testing.T) {
	sm, dir := newTestSystems(t, false)
	as := sm.AudioSystem

	buf, err := as.Acquire("chime", true)
	require.NoError(t, err)
	waitCompleted(t, sm, 1)
	require.Equal(t, uint32(0), buf.Generation)

	writeTestWAV(t, filepath.Join(dir, "audio", "chime.wav"), 32)
	require.True(t, as.Reload("chime"))
	waitCompleted(t, sm, 2)

	assert.Equal(t, uint32(1), buf.Generation)
	assert.Equal(t, uint32(32), buf.FrameCount)

	assert.False(t, as.Reload("never-acquired"))
}
