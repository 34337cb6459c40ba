package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/otsu-watermark/internal/config"
	"github.com/phambaophuc/otsu-watermark/internal/http/handlers"
	"github.com/phambaophuc/otsu-watermark/internal/models"
	"github.com/phambaophuc/otsu-watermark/internal/services/pipeline"
	"github.com/phambaophuc/otsu-watermark/internal/services/queue"
	"github.com/phambaophuc/otsu-watermark/internal/services/storage"
	"go.uber.org/zap"
)

type fakeWatermarker struct {
	err   error
	calls int
}

func (f *fakeWatermarker) Process(ctx context.Context, in, out string) (*pipeline.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if err := os.WriteFile(out, []byte("watermarked"), 0o644); err != nil {
		return nil, err
	}
	return &pipeline.Result{Kind: models.KindImage, InputPath: in, OutputPath: out, Width: 8, Height: 8, Size: 11}, nil
}

type fakeQueue struct {
	published []*models.ProcessingJob
}

func (q *fakeQueue) PublishJob(ctx context.Context, job *models.ProcessingJob) error {
	q.published = append(q.published, job)
	return nil
}

func (q *fakeQueue) GetQueueStats() (*queue.Stats, error) {
	return &queue.Stats{Queue: queue.QueueName, Messages: len(q.published)}, nil
}

func (q *fakeQueue) HealthCheck() string { return "healthy" }

type testServer struct {
	engine *gin.Engine
	wm     *fakeWatermarker
	cfg    *config.Config
}

func newTestServer(t *testing.T, q handlers.JobQueue) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	root := t.TempDir()
	cfg := &config.Config{Storage: config.StorageConfig{
		MaxUploadBytes: 1 << 20,
		UploadDir:      filepath.Join(root, "uploads"),
		OutputDir:      filepath.Join(root, "output"),
	}}
	wm := &fakeWatermarker{}
	h := handlers.NewMediaHandler(wm, mustStorage(t, cfg), q, queue.NewJobStore(), zap.NewNop(), cfg)
	return &testServer{
		engine: NewRouter(h, zap.NewNop(), cfg).SetupRoutes(),
		wm:     wm,
		cfg:    cfg,
	}
}

func mustStorage(t *testing.T, cfg *config.Config) *storage.StorageService {
	t.Helper()
	store, err := storage.NewStorageService(cfg)
	if err != nil {
		t.Fatalf("NewStorageService: %v", err)
	}
	return store
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(content)
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func decodeUpload(t *testing.T, rec *httptest.ResponseRecorder) models.UploadResponse {
	t.Helper()
	var resp models.UploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestUploadImageThenPreviewAndDownload(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(uploadRequest(t, "holiday.png", pngBytes(t)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	resp := decodeUpload(t, rec)
	if !resp.Success || resp.Type != models.KindImage || resp.OriginalName != "holiday.png" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if !strings.HasPrefix(resp.Filename, "watermarked_") || !strings.HasSuffix(resp.Filename, ".png") {
		t.Fatalf("filename = %q", resp.Filename)
	}
	if resp.URL != "/preview/"+resp.Filename {
		t.Fatalf("url = %q", resp.URL)
	}

	entries, _ := os.ReadDir(s.cfg.Storage.UploadDir)
	if len(entries) != 0 {
		t.Fatalf("uploads should be removed, found %d", len(entries))
	}

	rec = s.do(httptest.NewRequest(http.MethodGet, "/preview/"+resp.Filename, nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "watermarked" {
		t.Fatalf("preview: %d %q", rec.Code, rec.Body.String())
	}

	rec = s.do(httptest.NewRequest(http.MethodGet, "/download/"+resp.Filename+"?original_name=holiday", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("download status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "watermarked_holiday.png") {
		t.Fatalf("Content-Disposition = %q", cd)
	}
}

func TestUploadRejections(t *testing.T) {
	cases := []struct {
		name     string
		filename string
		content  []byte
		want     int
	}{
		{name: "unsupported extension", filename: "notes.txt", content: []byte("hello"), want: http.StatusBadRequest},
		{name: "content is not media", filename: "fake.png", content: []byte("plain text pretending"), want: http.StatusBadRequest},
		{name: "too large", filename: "big.png", content: bytes.Repeat([]byte{0}, 2<<20+1), want: http.StatusRequestEntityTooLarge},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, nil)
			rec := s.do(uploadRequest(t, tc.filename, tc.content))
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.want, rec.Body.String())
			}
			if s.wm.calls != 0 {
				t.Fatal("watermarker must not run for rejected uploads")
			}
		})
	}
}

func TestUploadWithoutFile(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")

	if rec := s.do(req); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestUploadProcessingFailure(t *testing.T) {
	s := newTestServer(t, nil)
	s.wm.err = models.ErrFontMissing

	rec := s.do(uploadRequest(t, "a.png", pngBytes(t)))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestVideoUploadIsQueued(t *testing.T) {
	q := &fakeQueue{}
	s := newTestServer(t, q)

	// Minimal MP4 header so the content sniffer reports video/mp4.
	mp4 := append([]byte{0, 0, 0, 0x18}, []byte("ftypmp42\x00\x00\x00\x00mp42isom")...)
	rec := s.do(uploadRequest(t, "clip.mp4", mp4))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	resp := decodeUpload(t, rec)
	if resp.JobID == "" || resp.Status != models.StatusPending || resp.Type != models.KindVideo {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(q.published) != 1 || q.published[0].ID != resp.JobID {
		t.Fatalf("published = %+v", q.published)
	}
	if s.wm.calls != 0 {
		t.Fatal("queued videos are not processed inline")
	}
}

func TestPreviewRejectsTraversalAndMissing(t *testing.T) {
	s := newTestServer(t, nil)
	for _, path := range []string{"/preview/missing.png", "/preview/..", "/download/nope.mp4"} {
		if rec := s.do(httptest.NewRequest(http.MethodGet, path, nil)); rec.Code != http.StatusNotFound {
			t.Fatalf("%s: status = %d", path, rec.Code)
		}
	}
}

func TestJobStatusAndHealth(t *testing.T) {
	s := newTestServer(t, nil)

	if rec := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/jobs/unknown", nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("job status = %d", rec.Code)
	}

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health = %d %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data models.HealthCheck `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Services["redis"] != "not configured" || resp.Data.Services["output_dir"] != "healthy" {
		t.Fatalf("services = %v", resp.Data.Services)
	}
}

func TestIndexAndStats(t *testing.T) {
	s := newTestServer(t, &fakeQueue{})

	rec := s.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("index = %d", rec.Code)
	}
	var index struct {
		Features map[string]bool     `json:"features"`
		Formats  map[string][]string `json:"formats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &index); err != nil {
		t.Fatal(err)
	}
	if !index.Features["queue"] || index.Features["cache"] || index.Features["publish"] {
		t.Fatalf("features = %v", index.Features)
	}
	if len(index.Formats["video"]) != len(models.VideoExtensions) {
		t.Fatalf("formats = %v", index.Formats)
	}

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("stats = %d", rec.Code)
	}
	var stats struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"cache", "jobs", "queue"} {
		if _, ok := stats.Data[key]; !ok {
			t.Fatalf("stats missing %q: %s", key, rec.Body.String())
		}
	}
}

func TestUploadRateLimited(t *testing.T) {
	s := newTestServer(t, nil)
	s.cfg.Storage.UploadRate = 0.001
	s.cfg.Storage.UploadBurst = 1
	s.engine = NewRouter(handlers.NewMediaHandler(s.wm, mustStorage(t, s.cfg), nil, nil, zap.NewNop(), s.cfg), zap.NewNop(), s.cfg).SetupRoutes()

	if rec := s.do(uploadRequest(t, "a.png", pngBytes(t))); rec.Code != http.StatusOK {
		t.Fatalf("first upload = %d %s", rec.Code, rec.Body.String())
	}
	if rec := s.do(uploadRequest(t, "b.png", pngBytes(t))); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second upload = %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(httptest.NewRequest(http.MethodOptions, "/upload", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS header")
	}
}
