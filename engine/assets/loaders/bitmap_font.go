package loaders

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/fzipp/bmfont"

	"github.com/vesta-engine/vesta/engine/resources"
)

/**
 * @brief Parses an AngelCode .fnt descriptor payload.
 *
 * Glyphs, kernings and pages come back sorted so repeated parses of the
 * same payload produce identical data. The atlas textures named by the
 * pages are not loaded here.
 * @param data The raw bytes of a text format .fnt file.
 * @returns A pointer to the parsed font data, or the parse error.
 */
func ParseBitmapFont(data []byte) (*resources.BitmapFontData, error) {
	desc, err := bmfont.ReadDescriptor(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing bitmap font: %w", err)
	}

	size := desc.Info.Size
	// BMFont writes a negative size when the font was matched by char height.
	if size < 0 {
		size = -size
	}

	out := &resources.BitmapFontData{
		Data: &resources.FontData{
			Face:       desc.Info.Face,
			Size:       uint32(size),
			LineHeight: int32(desc.Common.LineHeight),
			Baseline:   int32(desc.Common.Base),
			AtlasSizeX: int32(desc.Common.ScaleW),
			AtlasSizeY: int32(desc.Common.ScaleH),
			Glyphs:     make([]*resources.FontGlyph, 0, len(desc.Chars)),
			Kernings:   make([]*resources.FontKerning, 0, len(desc.Kerning)),
		},
		Pages: make([]*resources.BitmapFontPage, 0, len(desc.Pages)),
	}

	for _, p := range desc.Pages {
		out.Pages = append(out.Pages, &resources.BitmapFontPage{
			ID:   int8(p.ID),
			File: p.File,
		})
	}
	sort.Slice(out.Pages, func(i, j int) bool { return out.Pages[i].ID < out.Pages[j].ID })

	for _, g := range desc.Chars {
		out.Data.Glyphs = append(out.Data.Glyphs, &resources.FontGlyph{
			Codepoint: int32(g.ID),
			X:         uint16(g.X),
			Y:         uint16(g.Y),
			Width:     uint16(g.Width),
			Height:    uint16(g.Height),
			XOffset:   int16(g.XOffset),
			YOffset:   int16(g.YOffset),
			XAdvance:  int16(g.XAdvance),
			PageID:    uint8(g.Page),
		})
	}
	sort.Slice(out.Data.Glyphs, func(i, j int) bool {
		return out.Data.Glyphs[i].Codepoint < out.Data.Glyphs[j].Codepoint
	})

	for pair, k := range desc.Kerning {
		out.Data.Kernings = append(out.Data.Kernings, &resources.FontKerning{
			Codepoint0: int32(pair.First),
			Codepoint1: int32(pair.Second),
			Amount:     int16(k.Amount),
		})
	}
	sort.Slice(out.Data.Kernings, func(i, j int) bool {
		a, b := out.Data.Kernings[i], out.Data.Kernings[j]
		if a.Codepoint0 != b.Codepoint0 {
			return a.Codepoint0 < b.Codepoint0
		}
		return a.Codepoint1 < b.Codepoint1
	})

	return out, nil
}
