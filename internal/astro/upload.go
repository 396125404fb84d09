package astro

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

// uploadFieldName is the multipart field the backend expects for every
// image or document upload.
const uploadFieldName = "image"

// mimeByExtension is the fixed extension lookup used for uploads. Unknown
// extensions fall back to image/jpeg.
var mimeByExtension = map[string]string{
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"heic": "image/heic",
}

// FilePart describes one multipart part for an upload: the adapter output
// consumed by the transfer below. It performs the mapping only; the caller
// owns issuing the request and storing the returned remote URL.
type FilePart struct {
	FieldName string
	FileName  string
	MIMEType  string
}

// PartForFile builds the multipart part description for a local file path
// or URI, inferring the MIME type from the extension.
func PartForFile(path string) FilePart {
	name := filepath.Base(strings.TrimSuffix(path, "/"))
	return FilePart{
		FieldName: uploadFieldName,
		FileName:  name,
		MIMEType:  MIMETypeForExtension(strings.TrimPrefix(filepath.Ext(name), ".")),
	}
}

// MIMETypeForExtension maps a bare file extension to its MIME type.
func MIMETypeForExtension(ext string) string {
	if mime, ok := mimeByExtension[strings.ToLower(strings.TrimSpace(ext))]; ok {
		return mime
	}
	return "image/jpeg"
}

// Upload sends file content as a multipart request and returns the
// canonical remote URL reported by the backend.
func (c *Client) Upload(ctx context.Context, content io.Reader, part FilePart) (string, error) {
	if part.FieldName == "" {
		part.FieldName = uploadFieldName
	}

	var body strings.Builder
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, part.FieldName, part.FileName))
	header.Set("Content-Type", part.MIMEType)

	fileWriter, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := io.Copy(fileWriter, content); err != nil {
		return "", fmt.Errorf("copy upload content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	var env envelope
	err = c.do(ctx, http.MethodPost, "/upload", strings.NewReader(body.String()), writer.FormDataContentType(), &env)
	if err != nil {
		if c.metrics != nil {
			c.metrics.Uploads.WithLabelValues(part.MIMEType, "error").Inc()
		}
		return "", err
	}
	if env.ImageURL == "" {
		if c.metrics != nil {
			c.metrics.Uploads.WithLabelValues(part.MIMEType, "rejected").Inc()
		}
		return "", &APIError{Endpoint: "/upload", Message: messageOrDefault(env.Message, "Upload failed")}
	}
	if c.metrics != nil {
		c.metrics.Uploads.WithLabelValues(part.MIMEType, "ok").Inc()
	}
	return env.ImageURL, nil
}

// UploadFile opens a local file and uploads it, returning the remote URL.
func (c *Client) UploadFile(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open upload file: %w", err)
	}
	defer file.Close()
	return c.Upload(ctx, file, PartForFile(path))
}
