package documents

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/newtuple/dialogtuple/internal/docx"
	"github.com/newtuple/dialogtuple/internal/objectstore"
	"github.com/newtuple/dialogtuple/pkg/interfaces"
)

func docxFixture(t *testing.T, text string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	body := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>` +
		text + `</w:t></w:r></w:p></w:body></w:document>`
	if _, err := w.Write([]byte(body)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, label string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if label == "" {
				return metric.GetCounter().GetValue()
			}
			for _, pair := range metric.GetLabel() {
				if pair.GetValue() == label {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestUploadStoresDocument(t *testing.T) {
	store := objectstore.NewMemoryStore()
	reg := prometheus.NewRegistry()
	svc := NewService(store, WithMetrics(NewMetrics(reg)))

	payload := base64.StdEncoding.EncodeToString([]byte("docx-bytes"))
	result, err := svc.Upload(context.Background(), UploadRequest{FileName: "../../Report.DOCX", FileBase64: payload})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if result.Path != "Report.DOCX" || result.Message != UploadedMessage {
		t.Fatalf("unexpected result %+v", result)
	}

	data, obj, err := store.Get(context.Background(), "Report.DOCX")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "docx-bytes" || obj.ContentType != DocxContentType {
		t.Fatalf("unexpected stored object %q %+v", data, obj)
	}

	if _, err := svc.Upload(context.Background(), UploadRequest{FileName: "Report.DOCX", FileBase64: base64.StdEncoding.EncodeToString([]byte("v2"))}); err != nil {
		t.Fatalf("expected upsert to succeed, got %v", err)
	}
	data, _, _ = store.Get(context.Background(), "Report.DOCX")
	if string(data) != "v2" {
		t.Fatalf("expected overwritten content, got %q", data)
	}

	if got := counterValue(t, reg, "dialogtuple_documents_uploads_total", "ok"); got != 2 {
		t.Fatalf("expected 2 successful uploads, got %v", got)
	}
}

func TestUploadValidation(t *testing.T) {
	svc := NewService(objectstore.NewMemoryStore())
	ctx := context.Background()

	cases := []struct {
		name string
		req  UploadRequest
		want error
	}{
		{"missing name", UploadRequest{FileBase64: "YQ=="}, ErrMissingFields},
		{"missing payload", UploadRequest{FileName: "a.docx"}, ErrMissingFields},
		{"wrong extension", UploadRequest{FileName: "a.pdf", FileBase64: "YQ=="}, ErrInvalidFileType},
		{"bad base64", UploadRequest{FileName: "a.docx", FileBase64: "***"}, ErrInvalidEncoding},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Upload(ctx, tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

type failingStore struct {
	interfaces.ObjectStore
}

func (failingStore) Put(context.Context, string, []byte, interfaces.PutOptions) (*interfaces.Object, error) {
	return nil, errors.New("bucket offline")
}

func (failingStore) List(context.Context, interfaces.ListOptions) ([]interfaces.Object, error) {
	return nil, errors.New("bucket offline")
}

func TestStoreFailuresAreWrapped(t *testing.T) {
	svc := NewService(failingStore{})
	ctx := context.Background()

	_, err := svc.Upload(ctx, UploadRequest{FileName: "a.docx", FileBase64: "YQ=="})
	if !errors.Is(err, ErrUploadFailed) || !strings.Contains(err.Error(), "bucket offline") {
		t.Fatalf("expected wrapped upload failure, got %v", err)
	}
	if _, err := svc.Contents(ctx); !errors.Is(err, ErrListFailed) {
		t.Fatalf("expected ErrListFailed, got %v", err)
	}
}

func TestContentsConvertsAndSkipsFailures(t *testing.T) {
	store := objectstore.NewMemoryStore()
	ctx := context.Background()
	put := func(name string, data []byte) {
		t.Helper()
		if _, err := store.Put(ctx, name, data, interfaces.PutOptions{}); err != nil {
			t.Fatalf("Put %s: %v", name, err)
		}
	}
	put("b-guide.docx", docxFixture(t, "Guide body"))
	put("a-intro.DOCX", docxFixture(t, "Intro body"))
	put("broken.docx", []byte("not a zip"))
	put("notes.txt", []byte("ignored"))

	reg := prometheus.NewRegistry()
	svc := NewService(store, WithMetrics(NewMetrics(reg)), WithConcurrency(2))

	result, err := svc.Contents(ctx)
	if err != nil {
		t.Fatalf("Contents: %v", err)
	}
	if result.TotalFound != 3 || result.TotalProcessed != 2 || len(result.Files) != 2 {
		t.Fatalf("unexpected totals %+v", result)
	}
	if result.Files[0].Name != "a-intro.DOCX" || result.Files[1].Name != "b-guide.docx" {
		t.Fatalf("expected listing order preserved, got %s, %s", result.Files[0].Name, result.Files[1].Name)
	}
	if result.Files[0].Content != "<p>Intro body</p>" {
		t.Fatalf("unexpected content %q", result.Files[0].Content)
	}
	if result.Files[0].Warnings == nil {
		t.Fatalf("expected non-nil warnings slice")
	}
	if got := counterValue(t, reg, "dialogtuple_documents_conversion_failures_total", ""); got != 1 {
		t.Fatalf("expected 1 conversion failure, got %v", got)
	}
	if got := counterValue(t, reg, "dialogtuple_documents_conversions_total", ""); got != 2 {
		t.Fatalf("expected 2 conversions, got %v", got)
	}
}

type stubConverter struct{}

func (stubConverter) Convert(context.Context, []byte) (*docx.Result, error) {
	return &docx.Result{HTML: "<p>stub</p>", Messages: []docx.Message{{Type: "warning", Message: "note"}}}, nil
}

func TestContentsUsesConfiguredConverterAndLimit(t *testing.T) {
	store := objectstore.NewMemoryStore()
	ctx := context.Background()
	for _, name := range []string{"a.docx", "b.docx", "c.docx"} {
		if _, err := store.Put(ctx, name, []byte("x"), interfaces.PutOptions{}); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	svc := NewService(store, WithConverter(stubConverter{}), WithListLimit(2))

	result, err := svc.Contents(ctx)
	if err != nil {
		t.Fatalf("Contents: %v", err)
	}
	if result.TotalFound != 2 || result.Files[1].Content != "<p>stub</p>" || result.Files[1].Warnings[0].Message != "note" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestDownload(t *testing.T) {
	store := objectstore.NewMemoryStore()
	ctx := context.Background()
	if _, err := store.Put(ctx, "a.docx", []byte("raw"), interfaces.PutOptions{ContentType: DocxContentType}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	svc := NewService(store)

	data, obj, err := svc.Download(ctx, "nested/a.docx")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(data) != "raw" || obj.Name != "a.docx" {
		t.Fatalf("unexpected download %q %+v", data, obj)
	}
	if _, _, err := svc.Download(ctx, "missing.docx"); !errors.Is(err, objectstore.ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestDecodeBase64Variants(t *testing.T) {
	cases := []string{
		"aGVsbG8=",
		"aGVsbG8",
		"data:application/octet-stream;base64,aGVsbG8=",
		"aGVs\nbG8=",
	}
	for _, input := range cases {
		data, err := DecodeBase64(input)
		if err != nil || string(data) != "hello" {
			t.Fatalf("DecodeBase64(%q) = %q, %v", input, data, err)
		}
	}
}
