package client

import (
	"fmt"
	"mime"
	"net/http"
	"strings"

	json "github.com/json-iterator/go"
)

// PayloadKind says how a response body was interpreted
type PayloadKind int

const (
	PayloadJSON PayloadKind = iota + 1
	PayloadText
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadJSON:
		return "json"
	case PayloadText:
		return "text"
	default:
		return "unknown"
	}
}

// Payload is a decoded response body
type Payload struct {
	Kind        PayloadKind
	ContentType string
	Body        []byte
}

// Decode unmarshals a JSON payload into v
func (p *Payload) Decode(v interface{}) error {
	if p == nil {
		return nil
	}
	if p.Kind != PayloadJSON {
		return fmt.Errorf("expected json response, got %s (%s)", p.Kind, p.ContentType)
	}
	return json.Unmarshal(p.Body, v)
}

// Text returns the raw body
func (p *Payload) Text() string {
	if p == nil {
		return ""
	}
	return string(p.Body)
}

func isJSONMediaType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	}
	mediaType = strings.ToLower(mediaType)
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// decodePayload classifies a successful response body. No content, an empty
// body or a missing content type decode to nil. Invalid JSON under a JSON
// content type falls back to text.
func decodePayload(status int, contentType string, body []byte) *Payload {
	if status == http.StatusNoContent || len(body) == 0 || strings.TrimSpace(contentType) == "" {
		return nil
	}
	if isJSONMediaType(contentType) && json.Valid(body) {
		return &Payload{Kind: PayloadJSON, ContentType: contentType, Body: body}
	}
	return &Payload{Kind: PayloadText, ContentType: contentType, Body: body}
}
