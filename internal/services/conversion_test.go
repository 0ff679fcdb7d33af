package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yungbote/omex-backend/internal/platform/apierr"
	"github.com/yungbote/omex-backend/internal/platform/converter"
	"github.com/yungbote/omex-backend/internal/platform/logger"
	"github.com/yungbote/omex-backend/internal/platform/objectstorage"
)

type fakeRunner struct {
	dir     string
	out     []byte
	err     error
	calls   int
	gotPath string
	gotBody []byte
}

func (f *fakeRunner) AssertReady(ctx context.Context) error { return nil }

func (f *fakeRunner) Run(ctx context.Context, inputPath string) ([]byte, error) {
	f.calls++
	f.gotPath = inputPath
	f.gotBody, _ = os.ReadFile(inputPath)
	return f.out, f.err
}

func (f *fakeRunner) WriteTempFile(ctx context.Context, r io.Reader, suffix string) (string, func(), error) {
	p := filepath.Join(f.dir, "staged"+suffix)
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", func() {}, err
	}
	if err := os.WriteFile(p, raw, 0o600); err != nil {
		return "", func() {}, err
	}
	return p, func() { _ = os.Remove(p) }, nil
}

const samplePDF = "%PDF-1.7\n1 0 obj\n<<>>\nendobj\n"

func pdfUpload(body string) UploadedFile {
	return UploadedFile{Name: "notes.pdf", MimeType: "application/pdf", Size: int64(len(body)), Body: strings.NewReader(body)}
}

func newConversionForTest(t *testing.T, runner *fakeRunner, maxBytes int64) ConversionService {
	t.Helper()
	bucket, err := objectstorage.NewLocalBucket(logger.Nop(), t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewLocalBucket: %v", err)
	}
	return NewConversionService(logger.Nop(), runner, bucket, maxBytes)
}

func wantAPIError(t *testing.T, err error, status int, code string) *apierr.Error {
	t.Helper()
	ae, ok := apierr.As(err)
	if !ok {
		t.Fatalf("want *apierr.Error got=%T (%v)", err, err)
	}
	if ae.Status != status || ae.Code != code {
		t.Fatalf("want status=%d code=%q got status=%d code=%q (%v)", status, code, ae.Status, ae.Code, err)
	}
	return ae
}

func TestConvertReturnsMindmaps(t *testing.T) {
	runner := &fakeRunner{dir: t.TempDir(), out: []byte(`[{"title":" Cells ","content":"graph TD; A-->B"},{"title":"","content":"x"}]`)}
	svc := newConversionForTest(t, runner, DefaultUploadMaxSize)

	got, err := svc.Convert(context.Background(), pdfUpload(samplePDF))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(got) != 2 || got[0].Title != "Cells" || got[0].Content != "graph TD; A-->B" {
		t.Fatalf("unexpected mindmaps: %+v", got)
	}
	if got[1].Title != "Mindmap 2" {
		t.Fatalf("blank title fallback: got=%q", got[1].Title)
	}
	if !bytes.Equal(runner.gotBody, []byte(samplePDF)) {
		t.Fatalf("converter saw %q", runner.gotBody)
	}
	if _, err := os.Stat(runner.gotPath); !os.IsNotExist(err) {
		t.Fatalf("staged file not cleaned up: %s", runner.gotPath)
	}
}

func TestConvertRejectsNonPDF(t *testing.T) {
	runner := &fakeRunner{dir: t.TempDir()}
	svc := newConversionForTest(t, runner, DefaultUploadMaxSize)

	cases := []UploadedFile{
		{MimeType: "text/plain", Size: 5, Body: strings.NewReader("hello")},
		{MimeType: "application/pdf", Size: 5, Body: strings.NewReader("hello")},
		{MimeType: "", Size: int64(len(samplePDF)), Body: strings.NewReader(samplePDF)},
	}
	for i, f := range cases {
		_, err := svc.Convert(context.Background(), f)
		ae := wantAPIError(t, err, http.StatusBadRequest, apierr.CodeUnsupportedMediaType)
		if ae.Error() != msgOnlyPDF {
			t.Fatalf("case %d: message: got=%q", i, ae.Error())
		}
	}
	if runner.calls != 0 {
		t.Fatalf("converter must not run for rejected uploads; calls=%d", runner.calls)
	}
}

func TestConvertRejectsOversizedUpload(t *testing.T) {
	runner := &fakeRunner{dir: t.TempDir()}
	svc := newConversionForTest(t, runner, 16)

	declared := pdfUpload(samplePDF)
	_, err := svc.Convert(context.Background(), declared)
	wantAPIError(t, err, http.StatusRequestEntityTooLarge, apierr.CodePayloadTooLarge)

	undeclared := pdfUpload(samplePDF)
	undeclared.Size = 0
	_, err = svc.Convert(context.Background(), undeclared)
	wantAPIError(t, err, http.StatusRequestEntityTooLarge, apierr.CodePayloadTooLarge)

	if runner.calls != 0 {
		t.Fatalf("converter must not run for oversized uploads; calls=%d", runner.calls)
	}
}

func TestConvertMissingFile(t *testing.T) {
	svc := newConversionForTest(t, &fakeRunner{dir: t.TempDir()}, DefaultUploadMaxSize)
	_, err := svc.Convert(context.Background(), UploadedFile{})
	wantAPIError(t, err, http.StatusBadRequest, apierr.CodeValidation)
}

func TestConvertFailures(t *testing.T) {
	cases := []struct {
		name       string
		out        []byte
		err        error
		wantMsg    string
		wantDetail string
	}{
		{
			name:       "non-zero exit",
			err:        &converter.ProcessError{ExitCode: 1, Stderr: "Traceback: bad pdf", Err: errors.New("exit status 1")},
			wantMsg:    msgConvertFailed,
			wantDetail: "Traceback: bad pdf",
		},
		{
			name:    "timeout",
			err:     &converter.ProcessError{ExitCode: -1, Err: converter.ErrTimeout},
			wantMsg: msgConvertTimedOut,
		},
		{name: "garbage output", out: []byte("not json"), wantMsg: msgParseFailed},
		{
			name:    "trailing garbage",
			out:     []byte(`[{"title":"Intro","content":"x"}] Traceback (most recent call last): boom`),
			wantMsg: msgParseFailed,
		},
		{name: "two documents", out: []byte(`[{"title":"A","content":"x"}]` + "\n" + `[]`), wantMsg: msgParseFailed},
		{name: "empty list", out: []byte("[]"), wantMsg: msgNoMindmaps},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runner := &fakeRunner{dir: t.TempDir(), out: tc.out, err: tc.err}
			svc := newConversionForTest(t, runner, DefaultUploadMaxSize)
			_, err := svc.Convert(context.Background(), pdfUpload(samplePDF))
			ae := wantAPIError(t, err, http.StatusInternalServerError, apierr.CodeConversion)
			if ae.Error() != tc.wantMsg {
				t.Fatalf("message: want=%q got=%q", tc.wantMsg, ae.Error())
			}
			if tc.wantDetail != "" && ae.Detail != tc.wantDetail {
				t.Fatalf("detail: want=%q got=%q", tc.wantDetail, ae.Detail)
			}
		})
	}
}
