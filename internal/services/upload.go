package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/ivx/internal/models"
	"github.com/desertthunder/ivx/internal/shared"
)

// uploadField is the multipart field the backend reads the file from.
const uploadField = "file"

// videoTypes covers extensions the system MIME table often lacks. The backend rejects parts whose
// content type does not start with "video/".
var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
}

// ContentType guesses the part content type from the file extension.
func ContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ct, ok := videoTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// UploadVideo streams r to the backend as multipart field "file" named filename.
func (g *Gateway) UploadVideo(ctx context.Context, filename string, r io.Reader) (*models.UploadResult, error) {
	if err := requireFilename(filename); err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			uploadField, quoteEscaper.Replace(filepath.Base(filename))))
		h.Set("Content-Type", ContentType(filename))

		part, err := mw.CreatePart(h)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	var result models.UploadResult
	err := g.do(ctx, request{
		method:      http.MethodPost,
		path:        "/api/upload/video",
		body:        pr,
		contentType: mw.FormDataContentType(),
	}, &result)
	// unblocks the writer when the request failed before draining the pipe
	pr.Close()
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UploadFile opens path and uploads it with [Gateway.UploadVideo].
func (g *Gateway) UploadFile(ctx context.Context, path string) (*models.UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	defer f.Close()

	return g.UploadVideo(ctx, filepath.Base(path), f)
}
