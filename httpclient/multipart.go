package httpclient

import (
	"bytes"
	"cmp"
	"fmt"
	"io"
	"maps"
	"mime/multipart"
	"net/textproto"
	"slices"
	"strings"
)

// MultipartBody is a multipart/form-data request body. Fields are written in
// key order, empty values skipped, followed by Files in slice order.
type MultipartBody struct {
	Fields map[string]string
	Files  []FilePart
}

// FilePart is one uploaded file. ContentType defaults to
// application/octet-stream.
type FilePart struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func (f FilePart) header() textproto.MIMEHeader {
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(f.Field), quoteEscaper.Replace(f.Name)))
	h.Set("Content-Type", cmp.Or(f.ContentType, "application/octet-stream"))
	return h
}

// encode returns the body and its content type, boundary included.
func (m *MultipartBody) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, k := range slices.Sorted(maps.Keys(m.Fields)) {
		if v := m.Fields[k]; v != "" {
			if err := w.WriteField(k, v); err != nil {
				return nil, "", err
			}
		}
	}
	for _, f := range m.Files {
		part, err := w.CreatePart(f.header())
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
