package video

import (
	"context"
	"encoding/json"
	"math"
	"os/exec"
	"strconv"

	"github.com/phambaophuc/otsu-watermark/internal/models"
	"github.com/pkg/errors"
)

type ffprobeOutput struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		NbFrames   string `json:"nb_frames"`
		RFrameRate string `json:"r_frame_rate"`
		Tags       struct {
			Rotate string `json:"rotate"`
		} `json:"tags"`
		SideDataList []struct {
			Rotation *float64 `json:"rotation"`
		} `json:"side_data_list"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe runs ffprobe against path.
func (f *FFmpeg) Probe(ctx context.Context, path string) (*Probe, error) {
	if _, err := exec.LookPath(f.ffprobePath); err != nil {
		return nil, errors.Wrapf(models.ErrEncoderUnavailable, "ffprobe %q", f.ffprobePath)
	}

	cmd := exec.CommandContext(ctx, f.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrapf(models.ErrTranscodeFailed, "ffprobe %s: %v", path, err)
	}

	return parseProbe(output)
}

func parseProbe(data []byte) (*Probe, error) {
	var parsed ffprobeOutput
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, errors.Wrap(err, "parse ffprobe output")
	}

	result := &Probe{}
	if parsed.Format.Duration != "" {
		result.Duration, _ = strconv.ParseFloat(parsed.Format.Duration, 64)
	}

	foundVideo := false
	for _, s := range parsed.Streams {
		switch s.CodecType {
		case "video":
			if foundVideo {
				continue
			}
			foundVideo = true
			result.VideoCodec = s.CodecName
			result.Width = s.Width
			result.Height = s.Height
			result.FrameRate = s.RFrameRate
			result.Frames, _ = strconv.Atoi(s.NbFrames)

			rotation := 0.0
			if s.Tags.Rotate != "" {
				rotation, _ = strconv.ParseFloat(s.Tags.Rotate, 64)
			}
			for _, sd := range s.SideDataList {
				if sd.Rotation != nil {
					rotation = *sd.Rotation
				}
			}
			result.Rotation = normalizeRotation(rotation)
			// ffmpeg autorotates on decode, so quarter turns swap the frame.
			if result.Rotation == 90 || result.Rotation == 270 {
				result.Width, result.Height = result.Height, result.Width
			}
		case "audio":
			if !result.HasAudio {
				result.HasAudio = true
				result.AudioCodec = s.CodecName
			}
		}
	}

	if !foundVideo || result.Width <= 0 || result.Height <= 0 {
		return nil, errors.Wrap(models.ErrTranscodeFailed, "no video stream found")
	}

	return result, nil
}

// normalizeRotation maps a rotation in degrees onto [0, 360) in whole degrees.
func normalizeRotation(deg float64) int {
	r := int(math.Round(deg)) % 360
	if r < 0 {
		r += 360
	}
	return r
}
