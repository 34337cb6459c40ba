package video

import (
	"context"
	"os/exec"
	"strconv"

	"github.com/phambaophuc/otsu-watermark/internal/models"
	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

const maxErrorOutput = 4096

// FFmpeg is the Transcoder backed by the ffmpeg and ffprobe binaries.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
}

func NewFFmpeg(ffmpegPath, ffprobePath string) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpeg{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

// Available reports whether both binaries can be found.
func (f *FFmpeg) Available() error {
	for _, bin := range []string{f.ffmpegPath, f.ffprobePath} {
		if _, err := exec.LookPath(bin); err != nil {
			return errors.Wrapf(models.ErrEncoderUnavailable, "%s: %v", bin, err)
		}
	}
	return nil
}

// Args builds the ffmpeg argument list for job.
func (f *FFmpeg) Args(job EncodeJob) []string {
	input := ffmpeg.Input(job.InputPath)
	overlay := ffmpeg.Input(job.OverlayPath)

	// overlay repeats its last frame, so the still covers the whole input.
	video := ffmpeg.Filter(
		[]*ffmpeg.Stream{input.Video(), overlay},
		"overlay",
		ffmpeg.Args{strconv.Itoa(job.Offset.X), strconv.Itoa(job.Offset.Y)},
	)

	codec := GetCodecSettings(job.OutputPath)
	kwargs := ffmpeg.KwArgs{
		"c:v":     codec.VideoCodec,
		"pix_fmt": "yuv420p",
	}
	for k, v := range codec.Extra {
		kwargs[k] = v
	}

	streams := []*ffmpeg.Stream{video}
	if job.HasAudio {
		streams = append(streams, input.Audio())
		kwargs["c:a"] = codec.AudioCodec
	}

	return ffmpeg.Output(streams, job.OutputPath, kwargs).
		OverWriteOutput().
		GetArgs()
}

// Encode runs ffmpeg to completion.
func (f *FFmpeg) Encode(ctx context.Context, job EncodeJob) error {
	if _, err := exec.LookPath(f.ffmpegPath); err != nil {
		return errors.Wrapf(models.ErrEncoderUnavailable, "ffmpeg %q", f.ffmpegPath)
	}

	cmd := exec.CommandContext(ctx, f.ffmpegPath, f.Args(job)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Wrapf(models.ErrTranscodeFailed, "ffmpeg: %v\noutput: %s", err, tail(output, maxErrorOutput))
	}
	return nil
}

func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(b)
}
