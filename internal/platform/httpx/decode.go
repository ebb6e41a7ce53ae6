package httpx

import (
	"encoding/json"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/form/v4"
	"github.com/shopspring/decimal"

	"github.com/tantu-erp/tantu/internal/shared"
)

const maxBodyBytes = 1 << 20

// Decode reads a JSON or form-encoded request body into target, a pointer to
// a struct. Form values are coerced to the field types named by their json
// tags; blank form values are ignored.
func Decode(r *http.Request, target any) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil && err != http.ErrNotMultipart {
			return shared.Validation("malformed form body")
		}
		return decodeForm(r.PostForm, target)
	default:
		dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(target); err != nil {
			return shared.Validation("malformed json body: %v", err)
		}
		return nil
	}
}

var formDecoder = newFormDecoder()

// newFormDecoder keys form fields by their json tag, so one request struct
// serves both body encodings.
func newFormDecoder() *form.Decoder {
	dec := form.NewDecoder()
	dec.SetTagName("json")
	dec.RegisterCustomTypeFunc(func(vals []string) (interface{}, error) {
		return decimal.NewFromString(vals[0])
	}, decimal.Decimal{})
	dec.RegisterCustomTypeFunc(func(vals []string) (interface{}, error) {
		var d shared.Date
		err := d.UnmarshalText([]byte(vals[0]))
		return d, err
	}, shared.Date{})
	return dec
}

func decodeForm(values url.Values, target any) error {
	cleaned := make(url.Values, len(values))
	for name, vals := range values {
		if len(vals) == 0 {
			continue
		}
		if v := strings.TrimSpace(vals[0]); v != "" {
			cleaned.Set(name, v)
		}
	}
	if err := formDecoder.Decode(target, cleaned); err != nil {
		return shared.Validation("malformed form body: %v", err)
	}
	return nil
}

// PathID parses a positive int64 URL parameter value.
func PathID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.Validation("invalid id %q", raw)
	}
	return id, nil
}
