package models

import "errors"

var (
	ErrInputNotFound         = errors.New("input file not found")
	ErrFontMissing           = errors.New("font asset missing")
	ErrUnsupportedExtension  = errors.New("unsupported file extension")
	ErrUnsupportedOutput     = errors.New("unsupported output format")
	ErrOutputOverwritesInput = errors.New("output path is the input file")
	ErrEncoderUnavailable    = errors.New("video encoder unavailable")
	ErrTranscodeFailed       = errors.New("video transcode failed")
)
