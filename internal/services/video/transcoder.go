// Package video overlays the watermark onto every frame of a video by
// delegating decoding, filtering and encoding to an external transcoder.
package video

import (
	"context"
	"image"
)

// Probe describes the streams of a media file. Width and Height are the
// displayed frame size, after the stream's rotation is applied.
type Probe struct {
	Width      int
	Height     int
	Rotation   int
	Duration   float64
	Frames     int
	FrameRate  string
	VideoCodec string
	AudioCodec string
	HasAudio   bool
}

// EncodeJob asks the transcoder to composite OverlayPath at Offset on every
// frame of InputPath for its full duration and write OutputPath.
type EncodeJob struct {
	InputPath   string
	OverlayPath string
	OutputPath  string
	Offset      image.Point
	HasAudio    bool
}

type Transcoder interface {
	Probe(ctx context.Context, path string) (*Probe, error)
	Encode(ctx context.Context, job EncodeJob) error
}
