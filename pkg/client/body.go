package client

import (
	"io"
	"net/url"

	"github.com/go-resty/resty/v2"
	json "github.com/json-iterator/go"
)

// Multipart is a multipart/form-data body. The boundary is computed by the
// transport, so callers must not set a content type.
type Multipart struct {
	Fields map[string]string
	Files  []MultipartFile
}

// MultipartFile is one file part of a Multipart body
type MultipartFile struct {
	Param       string
	FileName    string
	ContentType string
	Reader      io.Reader
}

func hasContentType(req *resty.Request) bool {
	return req.Header.Get("Content-Type") != ""
}

// applyBody attaches the body and, for JSON-able values, the JSON content
// type. Form, binary, stream and multipart bodies keep whatever content
// type the transport computes.
func applyBody(req *resty.Request, body interface{}) error {
	switch b := body.(type) {
	case nil:
		return nil
	case url.Values:
		req.SetFormDataFromValues(b)
	case []byte:
		req.SetBody(b)
	case *Multipart:
		if len(b.Fields) > 0 {
			req.SetMultipartFormData(b.Fields)
		}
		for _, f := range b.Files {
			req.SetMultipartField(f.Param, f.FileName, f.ContentType, f.Reader)
		}
	case io.Reader:
		if !hasContentType(req) {
			req.SetHeader("Content-Type", "application/octet-stream")
		}
		req.SetBody(b)
	case string:
		if !hasContentType(req) {
			req.SetHeader("Content-Type", "application/json")
		}
		req.SetBody(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return err
		}
		if !hasContentType(req) {
			req.SetHeader("Content-Type", "application/json")
		}
		req.SetBody(data)
	}
	return nil
}
