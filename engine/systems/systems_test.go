package systems

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// A minimal BMFont descriptor with two glyphs and one kerning pair. The
// page names the atlas texture seeded under textures/.
const testFNT = `info face="Test Mono" size=32 bold=0 italic=0 charset="" unicode=1 stretchH=100 smooth=1 aa=1 padding=0,0,0,0 spacing=1,1 outline=0
common lineHeight=32 base=25 scaleW=64 scaleH=64 pages=1 packed=0 alphaChnl=1 redChnl=0 greenChnl=0 blueChnl=0
page id=0 file="atlas_0.png"
chars count=2
char id=65   x=0     y=0     width=20    height=24    xoffset=-1    yoffset=4     xadvance=19    page=0  chnl=15
char id=86   x=21    y=0     width=20    height=24    xoffset=0     yoffset=4     xadvance=19    page=0  chnl=15
kernings count=1
kerning first=65  second=86  amount=-2
`

func writeTestPNG(t *testing.T, path string, width, height int, alpha uint8) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(40 * x), G: uint8(40 * y), B: 200, A: alpha})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

// writeTestWAV writes a 16 bit mono PCM clip with the given frame count.
func writeTestWAV(t *testing.T, path string, frames int) {
	t.Helper()

	var format bytes.Buffer
	binary.Write(&format, binary.LittleEndian, uint16(0x0001))
	binary.Write(&format, binary.LittleEndian, uint16(1))
	binary.Write(&format, binary.LittleEndian, uint32(8000))
	binary.Write(&format, binary.LittleEndian, uint32(16000))
	binary.Write(&format, binary.LittleEndian, uint16(2))
	binary.Write(&format, binary.LittleEndian, uint16(16))

	samples := make([]byte, frames*2)
	for i := range samples {
		samples[i] = byte(i)
	}

	var body bytes.Buffer
	body.WriteString("WAVE")
	body.WriteString("fmt ")
	binary.Write(&body, binary.LittleEndian, uint32(format.Len()))
	body.Write(format.Bytes())
	body.WriteString("data")
	binary.Write(&body, binary.LittleEndian, uint32(len(samples)))
	body.Write(samples)

	var out bytes.Buffer
	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())
	require.NoError(t, os.WriteFile(path, out.Bytes(), 0o644))
}

// seedSystemsTree builds an asset tree with one asset of every type plus
// the font's atlas page texture.
func seedSystemsTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, sub := range []string{"textures", "audio", "fonts"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0o755))
	}
	writeTestPNG(t, filepath.Join(dir, "textures", "stone.png"), 4, 4, 255)
	writeTestPNG(t, filepath.Join(dir, "textures", "glass.png"), 2, 2, 128)
	writeTestPNG(t, filepath.Join(dir, "textures", "atlas_0.png"), 8, 8, 255)
	writeTestWAV(t, filepath.Join(dir, "audio", "chime.wav"), 64)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fonts", "ubuntu.fnt"), []byte(testFNT), 0o644))
	return dir
}

func newTestSystems(t *testing.T, watch bool) (*SystemManager, string) {
	t.Helper()
	dir := seedSystemsTree(t)
	sm, err := NewSystemManager(&SystemManagerConfig{
		AppName:             "systems-test",
		AssetBasePath:       dir,
		WatchAssets:         watch,
		RendererBackend:     "software",
		MaxTextureCount:     32,
		MaxAudioBufferCount: 8,
		LoaderReaders:       2,
		LoaderQueueCapacity: 16,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, sm.Shutdown()) })
	return sm, dir
}

// waitCompleted blocks until at least n loads completed and nothing is
// still in flight.
func waitCompleted(t *testing.T, sm *SystemManager, n uint64) {
	t.Helper()
	require.Eventually(t, func() bool {
		return sm.Loader.CompletedCount() >= n && sm.Loader.Pending() == 0
	}, 5*time.Second, 2*time.Millisecond)
}
