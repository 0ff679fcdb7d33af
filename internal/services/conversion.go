package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/omex-backend/internal/domain/study"
	"github.com/yungbote/omex-backend/internal/observability"
	"github.com/yungbote/omex-backend/internal/platform/apierr"
	"github.com/yungbote/omex-backend/internal/platform/converter"
	"github.com/yungbote/omex-backend/internal/platform/ctxutil"
	"github.com/yungbote/omex-backend/internal/platform/logger"
	"github.com/yungbote/omex-backend/internal/platform/objectstorage"
)

const (
	pdfMimeType          = "application/pdf"
	DefaultUploadMaxSize = 10 << 20

	msgNoFile          = "No file uploaded"
	msgOnlyPDF         = "Only PDF files are allowed"
	msgFileTooLarge    = "File too large. Maximum size is %dMB"
	msgConvertFailed   = "Failed to generate mindmap"
	msgParseFailed     = "Failed to parse mindmap data"
	msgNoMindmaps      = "No mindmaps were generated from this document"
	msgConvertTimedOut = "Mindmap generation timed out"
)

// UploadedFile is a document received from a client.
type UploadedFile struct {
	Name     string
	MimeType string
	Size     int64
	Body     io.Reader
}

type ConversionService interface {
	Convert(ctx context.Context, file UploadedFile) ([]study.Mindmap, error)
	MaxUploadBytes() int64
}

type conversionService struct {
	log      *logger.Logger
	runner   converter.Runner
	bucket   objectstorage.Bucket
	maxBytes int64
	now      func() time.Time
}

func NewConversionService(log *logger.Logger, runner converter.Runner, bucket objectstorage.Bucket, maxBytes int64) ConversionService {
	if maxBytes <= 0 {
		maxBytes = DefaultUploadMaxSize
	}
	return &conversionService{
		log:      log.With("service", "ConversionService"),
		runner:   runner,
		bucket:   bucket,
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

func (cs *conversionService) MaxUploadBytes() int64 { return cs.maxBytes }

func (cs *conversionService) tooLarge() error {
	return apierr.PayloadTooLarge(fmt.Sprintf(msgFileTooLarge, cs.maxBytes>>20))
}

func (cs *conversionService) Convert(ctx context.Context, file UploadedFile) ([]study.Mindmap, error) {
	start := cs.now()
	mindmaps, err := cs.convert(ctx, file)
	observability.Current().ObserveConversion(conversionOutcome(err), cs.now().Sub(start))
	return mindmaps, err
}

func conversionOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	ae, ok := apierr.As(err)
	switch {
	case !ok:
		return "error"
	case ae.Code != apierr.CodeConversion:
		return "rejected"
	case ae.Error() == msgConvertTimedOut:
		return "timeout"
	default:
		return "failed"
	}
}

func (cs *conversionService) convert(ctx context.Context, file UploadedFile) ([]study.Mindmap, error) {
	if file.Body == nil {
		return nil, apierr.Validation(msgNoFile)
	}
	if file.Size > cs.maxBytes {
		return nil, cs.tooLarge()
	}
	mediaType, _, err := mime.ParseMediaType(file.MimeType)
	if err != nil || !strings.EqualFold(mediaType, pdfMimeType) {
		return nil, apierr.UnsupportedMediaType(msgOnlyPDF)
	}

	br := bufio.NewReaderSize(file.Body, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if http.DetectContentType(head) != pdfMimeType {
		return nil, apierr.UnsupportedMediaType(msgOnlyPDF)
	}

	counted := &countingReader{r: io.LimitReader(br, cs.maxBytes+1)}
	path, cleanup, err := cs.runner.WriteTempFile(ctx, counted, ".pdf")
	if err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	defer cleanup()
	if counted.n > cs.maxBytes {
		return nil, cs.tooLarge()
	}

	cs.archive(ctx, path)

	out, err := cs.runner.Run(ctx, path)
	if err != nil {
		var perr *converter.ProcessError
		switch {
		case errors.Is(err, converter.ErrTimeout):
			return nil, apierr.Conversion(msgConvertTimedOut, "")
		case errors.As(err, &perr):
			return nil, apierr.Conversion(msgConvertFailed, perr.Stderr)
		default:
			return nil, fmt.Errorf("run converter: %w", err)
		}
	}
	return parseMindmaps(out)
}

// archive keeps a copy of the upload under a per-request key. Failures are logged only.
func (cs *conversionService) archive(ctx context.Context, path string) {
	if cs.bucket == nil {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		cs.log.Warn("archive upload: open staged file failed", "error", err)
		return
	}
	defer f.Close()
	now := cs.now().UTC()
	key := fmt.Sprintf("mindmaps/%04d/%02d/%02d/%s.pdf", now.Year(), now.Month(), now.Day(), uuid.NewString())
	if err := cs.bucket.Upload(ctx, objectstorage.CategoryUpload, key, f); err != nil {
		cs.log.Warn("archive upload failed (ignored)", "key", key, "error", err)
		return
	}
	cs.log.Debug("upload archived", append([]interface{}{"key", key}, ctxutil.LogFields(ctx)...)...)
}

func parseMindmaps(out []byte) ([]study.Mindmap, error) {
	var mindmaps []study.Mindmap
	if err := json.Unmarshal(bytes.TrimSpace(out), &mindmaps); err != nil {
		return nil, apierr.Conversion(msgParseFailed, err.Error())
	}
	if len(mindmaps) == 0 {
		return nil, apierr.Conversion(msgNoMindmaps, "")
	}
	for i := range mindmaps {
		mindmaps[i].Title = strings.TrimSpace(mindmaps[i].Title)
		if mindmaps[i].Title == "" {
			mindmaps[i].Title = fmt.Sprintf("Mindmap %d", i+1)
		}
	}
	return mindmaps, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
