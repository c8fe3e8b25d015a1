package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"medicore_backend/internal/storage"
	"medicore_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type fakeSigner struct {
	signed []string
}

func (f *fakeSigner) GenerateUploadURL(_ context.Context, folder, fileName string) (*storage.PresignedURL, error) {
	key := folder + "/" + fileName
	f.signed = append(f.signed, key)
	return &storage.PresignedURL{
		URL:       "https://minio.local/" + key,
		ObjectKey: key,
		ExpiresAt: time.Now().Add(storage.PresignedURLTTL),
	}, nil
}

type fakeMediaEnqueuer struct {
	keys []string
}

func (f *fakeMediaEnqueuer) EnqueueMediaProcess(_ context.Context, objectKey string) error {
	f.keys = append(f.keys, objectKey)
	return nil
}

func newUploadRouter(signer *fakeSigner, queue *fakeMediaEnqueuer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	h := New(nil, signer, queue, validator.New())
	h.RegisterRoutes(engine.Group("/import"))
	return engine
}

func postUploadURL(t *testing.T, engine *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/import/upload-url", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestUploadURLQueuesImageForProcessing(t *testing.T) {
	signer := &fakeSigner{}
	queue := &fakeMediaEnqueuer{}
	engine := newUploadRouter(signer, queue)

	rec := postUploadURL(t, engine, `{"fileName":"scan.jpg","contentType":"image/jpeg"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(queue.keys) != 1 {
		t.Fatalf("expected 1 media task, got %d", len(queue.keys))
	}
	if len(signer.signed) != 1 || queue.keys[0] != signer.signed[0] {
		t.Fatalf("media task must carry the signed object key, got %v vs %v", queue.keys, signer.signed)
	}
}

func TestUploadURLSkipsMediaQueueForCSV(t *testing.T) {
	signer := &fakeSigner{}
	queue := &fakeMediaEnqueuer{}
	engine := newUploadRouter(signer, queue)

	rec := postUploadURL(t, engine, `{"fileName":"leads.csv","contentType":"text/csv"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(queue.keys) != 0 {
		t.Fatalf("non-media uploads must not enter the media queue, got %v", queue.keys)
	}
}

func TestUploadURLRequiresContentType(t *testing.T) {
	engine := newUploadRouter(&fakeSigner{}, &fakeMediaEnqueuer{})

	rec := postUploadURL(t, engine, `{"fileName":"leads.csv"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
