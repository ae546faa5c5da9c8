package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

// DefaultMultipartMemory is the in-memory budget for multipart parsing; larger
// parts spill to temporary files.
const DefaultMultipartMemory = 32 << 20

// ErrMalformedBody is returned when a JSON body cannot be decoded.
var ErrMalformedBody = errors.New("malformed request body")

// Payload is the normalized form of a request body or query string. Values are
// strings, numbers, booleans, nested maps, slices or *multipart.FileHeader.
type Payload map[string]any

// Lookup resolves a dotted path. A nil value counts as absent.
func (p Payload) Lookup(path string) (any, bool) {
	var current any = map[string]any(p)
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	if current == nil {
		return nil, false
	}
	return current, true
}

// String returns the trimmed string at path, or "".
func (p Payload) String(path string) string {
	value, _ := p.Lookup(path)
	s, _ := value.(string)
	return strings.TrimSpace(s)
}

// StringPtr returns the trimmed string at path or nil when it is absent.
func (p Payload) StringPtr(path string) *string {
	value, ok := p.Lookup(path)
	if !ok {
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	return &s
}

// Raw returns the untrimmed string at path. Passwords use it.
func (p Payload) Raw(path string) string {
	value, _ := p.Lookup(path)
	s, _ := value.(string)
	return s
}

// BoolPtr returns the boolean at path or nil when it is absent or not boolean.
func (p Payload) BoolPtr(path string) *bool {
	value, ok := p.Lookup(path)
	if !ok {
		return nil
	}
	b, ok := AsBool(value)
	if !ok {
		return nil
	}
	return &b
}

// File returns the upload at path, if any.
func (p Payload) File(path string) *multipart.FileHeader {
	value, _ := p.Lookup(path)
	fh, _ := value.(*multipart.FileHeader)
	return fh
}

// FromRequest builds a payload from the request body. JSON and multipart bodies
// are supported; url-encoded forms are treated like multipart text fields. An
// empty body yields an empty payload so required fields report as missing.
func FromRequest(r *http.Request) (Payload, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(DefaultMultipartMemory); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
		}
		return FromMultipart(r.MultipartForm), nil
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
		}
		return FromValues(r.PostForm), nil
	default:
		return FromJSON(r.Body)
	}
}

// FromJSON decodes a JSON object. Anything other than an object is malformed.
func FromJSON(body io.Reader) (Payload, error) {
	if body == nil {
		return Payload{}, nil
	}

	var payload Payload
	err := json.NewDecoder(body).Decode(&payload)
	switch {
	case errors.Is(err, io.EOF):
		return Payload{}, nil
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if payload == nil {
		payload = Payload{}
	}
	return payload, nil
}

// FromMultipart flattens a parsed multipart form. The first value or file of
// each key wins; a file replaces a text value of the same name.
func FromMultipart(form *multipart.Form) Payload {
	payload := Payload{}
	if form == nil {
		return payload
	}
	for key, values := range form.Value {
		if len(values) > 0 {
			payload[key] = values[0]
		}
	}
	for key, files := range form.File {
		if len(files) > 0 {
			payload[key] = files[0]
		}
	}
	return payload
}

// FromValues converts query or url-encoded values, keeping the first of each key.
func FromValues(values url.Values) Payload {
	payload := Payload{}
	for key, list := range values {
		if len(list) > 0 {
			payload[key] = list[0]
		}
	}
	return payload
}
