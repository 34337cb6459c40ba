package main

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phambaophuc/otsu-watermark/internal/models"
	"golang.org/x/image/font/gofont/gobold"
)

func setupFonts(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "fonts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Test-Bold.ttf"), gobold.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FONT_DIR", dir)
	t.Setenv("FONT_FILE", "Test-Bold.ttf")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 20, G: 40, B: 60, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q to contain %q", haystack, needle)
	}
}

func TestWatermarkImageDefaultOutput(t *testing.T) {
	setupFonts(t)
	input := filepath.Join(t.TempDir(), "photo.png")
	writeTestPNG(t, input, 320, 200)

	code, out, errOut := runCLI(t, input)
	if code != exitOK {
		t.Fatalf("exit = %d stderr=%s", code, errOut)
	}

	want := filepath.Join(filepath.Dir(input), "photo_watermarked.png")
	requireContains(t, out, want)
	requireContains(t, out, "320x200")

	f, err := os.Open(want)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if cfg.Width != 320 || cfg.Height != 200 {
		t.Fatalf("output size = %dx%d", cfg.Width, cfg.Height)
	}
}

func TestWatermarkImageExplicitOutput(t *testing.T) {
	setupFonts(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "photo.png")
	output := filepath.Join(dir, "nested.jpg")
	writeTestPNG(t, input, 64, 48)

	code, _, errOut := runCLI(t, input, "-o", output)
	if code != exitOK {
		t.Fatalf("exit = %d stderr=%s", code, errOut)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("expected output: %v", err)
	}
}

func TestExitCodes(t *testing.T) {
	setupFonts(t)
	dir := t.TempDir()
	present := filepath.Join(dir, "present.png")
	writeTestPNG(t, present, 16, 16)

	cases := []struct {
		name   string
		args   []string
		want   int
		stderr string
	}{
		{name: "no arguments", args: nil, want: exitUsage, stderr: "Usage:"},
		{name: "two arguments", args: []string{"a.png", "b.png"}, want: exitUsage, stderr: "exactly one"},
		{name: "unknown flag", args: []string{"--nope", present}, want: exitUsage, stderr: "unknown flag"},
		{name: "unsupported extension", args: []string{filepath.Join(dir, "notes.txt")}, want: exitUsage, stderr: "unsupported"},
		{name: "animated gif", args: []string{filepath.Join(dir, "loop.gif")}, want: exitUsage, stderr: "unsupported"},
		{name: "missing input", args: []string{filepath.Join(dir, "missing.png")}, want: exitFailure, stderr: "not found"},
		{name: "webp output", args: []string{present, "-o", filepath.Join(dir, "out.webp")}, want: exitFailure, stderr: "Error:"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, _, errOut := runCLI(t, tc.args...)
			if code != tc.want {
				t.Fatalf("exit = %d, want %d (stderr=%s)", code, tc.want, errOut)
			}
			requireContains(t, strings.ToLower(errOut), strings.ToLower(tc.stderr))
		})
	}
}

func TestDefaultFontFoundOutsideProjectDir(t *testing.T) {
	exe, err := os.Executable()
	if err != nil {
		t.Skipf("executable path unavailable: %v", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	fonts := filepath.Join(filepath.Dir(exe), "assets", "fonts")
	if _, err := os.Stat(fonts); err == nil {
		t.Skipf("%s already exists", fonts)
	}
	if err := os.MkdirAll(fonts, 0o755); err != nil {
		t.Skipf("binary directory not writable: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(filepath.Dir(fonts)) })
	if err := os.WriteFile(filepath.Join(fonts, "Geist-SemiBold.ttf"), gobold.TTF, 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("FONT_DIR", "")
	t.Setenv("FONT_FILE", "")
	t.Setenv("LOG_LEVEL", "error")

	elsewhere := t.TempDir()
	input := filepath.Join(elsewhere, "photo.png")
	writeTestPNG(t, input, 64, 48)
	chdir(t, elsewhere)

	code, _, errOut := runCLI(t, "photo.png")
	if code != exitOK {
		t.Fatalf("exit = %d stderr=%s", code, errOut)
	}
	if _, err := os.Stat(filepath.Join(elsewhere, "photo_watermarked.png")); err != nil {
		t.Fatalf("expected output: %v", err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(prev) })
}

func TestMissingFontFailsWithoutOutput(t *testing.T) {
	t.Setenv("FONT_DIR", filepath.Join(t.TempDir(), "absent"))
	t.Setenv("LOG_LEVEL", "error")
	dir := t.TempDir()
	input := filepath.Join(dir, "photo.png")
	writeTestPNG(t, input, 16, 16)

	code, _, errOut := runCLI(t, input)
	if code != exitFailure {
		t.Fatalf("exit = %d stderr=%s", code, errOut)
	}
	if _, err := os.Stat(filepath.Join(dir, "photo_watermarked.png")); !os.IsNotExist(err) {
		t.Fatalf("no output expected, stat err = %v", err)
	}
}

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{err: nil, want: exitOK},
		{err: newUsageError("bad"), want: exitUsage},
		{err: models.ErrUnsupportedExtension, want: exitUsage},
		{err: fmt.Errorf("wrap: %w", models.ErrUnsupportedExtension), want: exitUsage},
		{err: models.ErrFontMissing, want: exitFailure},
		{err: errors.New("boom"), want: exitFailure},
	}
	for _, tc := range cases {
		if got := exitCode(tc.err); got != tc.want {
			t.Errorf("exitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
