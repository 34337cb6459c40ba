package video

import (
	"path/filepath"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

type CodecSettings struct {
	VideoCodec string
	AudioCodec string
	Extra      ffmpeg.KwArgs
}

// GetCodecSettings picks encoders that the output container accepts.
func GetCodecSettings(outputPath string) CodecSettings {
	switch strings.ToLower(filepath.Ext(outputPath)) {
	case ".webm":
		return CodecSettings{
			VideoCodec: "libvpx-vp9",
			AudioCodec: "libopus",
			Extra:      ffmpeg.KwArgs{"crf": "32", "b:v": "0"},
		}
	case ".mp4", ".mov":
		return CodecSettings{
			VideoCodec: "libx264",
			AudioCodec: "aac",
			Extra:      ffmpeg.KwArgs{"preset": "medium", "crf": "23", "movflags": "+faststart"},
		}
	default:
		return CodecSettings{
			VideoCodec: "libx264",
			AudioCodec: "aac",
			Extra:      ffmpeg.KwArgs{"preset": "medium", "crf": "23"},
		}
	}
}
