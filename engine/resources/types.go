package resources

/** @brief An invalid identifier or generation marker. */
const InvalidID uint32 = 4294967295

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	/** @brief Unknown resource type. */
	ResourceTypeNone ResourceType = iota
	/** @brief Image resource type. */
	ResourceTypeImage
	/** @brief Audio resource type. */
	ResourceTypeAudio
	/** @brief Bitmap font resource type. */
	ResourceTypeBitmapFont
	/** @brief Custom resource type. Used by loaders outside the core engine. */
	ResourceTypeCustom
)

func (rt ResourceType) String() string {
	switch rt {
	case ResourceTypeImage:
		return "image"
	case ResourceTypeAudio:
		return "audio"
	case ResourceTypeBitmapFont:
		return "bitmap_font"
	case ResourceTypeCustom:
		return "custom"
	default:
		return "none"
	}
}

/**
 * @brief A structure to hold decoded image data.
 */
type ImageData struct {
	/** @brief The number of channels. */
	ChannelCount uint8
	/** @brief The width of the image. */
	Width uint32
	/** @brief The height of the image. */
	Height uint32
	/** @brief The pixel data of the image. */
	Pixels []uint8
}

/** @brief The default texture name. */
const DEFAULT_TEXTURE_NAME string = "default"

type TextureFlag int

const (
	/** @brief Indicates if the texture has transparency. */
	TextureFlagHasTransparency TextureFlag = 0x1
	/** @brief Indicates if the texture can be written (rendered) to. */
	TextureFlagIsWriteable TextureFlag = 0x2
)

/** @brief Holds bit flags for textures.. */
type TextureFlagBits uint8

/**
 * @brief Represents a texture.
 */
type Texture struct {
	/** @brief The unique texture identifier. */
	ID uint32
	/** @brief The texture Width. */
	Width uint32
	/** @brief The texture Height. */
	Height uint32
	/** @brief The number of channels in the texture. */
	ChannelCount uint8
	/** @brief Holds various Flags for this texture. */
	Flags TextureFlagBits
	/** @brief The texture Generation. Incremented every time the data is reloaded. */
	Generation uint32
	/** @brief The texture Name. */
	Name string
	/** @brief Render backend specific data. */
	InternalData interface{}
}

/** @brief Sample encodings carried by an audio buffer. */
type AudioFormat int

const (
	/** @brief Integer PCM samples. */
	AudioFormatPCM AudioFormat = iota
	/** @brief 32 or 64 bit IEEE float samples. */
	AudioFormatFloat
)

/**
 * @brief Represents a decoded audio clip.
 */
type AudioBuffer struct {
	/** @brief The unique buffer identifier. */
	ID uint32
	/** @brief The buffer Generation. Incremented every time the data is reloaded. */
	Generation uint32
	/** @brief The buffer Name. */
	Name string
	/** @brief The sample encoding. */
	Format AudioFormat
	/** @brief The number of interleaved channels. */
	Channels uint8
	/** @brief Samples per second. */
	SampleRate uint32
	/** @brief Bits per single sample. */
	BitsPerSample uint16
	/** @brief The number of sample frames in Samples. */
	FrameCount uint32
	/** @brief The raw interleaved sample data. */
	Samples []byte
}

/**
 * @brief Tracks how many holders reference a named resource slot.
 */
type Reference struct {
	ReferenceCount uint64
	Handle         uint32
	AutoRelease    bool
}

type FontGlyph struct {
	Codepoint int32
	X         uint16
	Y         uint16
	Width     uint16
	Height    uint16
	XOffset   int16
	YOffset   int16
	XAdvance  int16
	PageID    uint8
}

type FontKerning struct {
	Codepoint0 int32
	Codepoint1 int32
	Amount     int16
}

type FontData struct {
	Face       string
	Size       uint32
	LineHeight int32
	Baseline   int32
	AtlasSizeX int32
	AtlasSizeY int32
	Glyphs     []*FontGlyph
	Kernings   []*FontKerning
}

type BitmapFontPage struct {
	ID   int8
	File string
}

type BitmapFontData struct {
	Data  *FontData
	Pages []*BitmapFontPage
}
