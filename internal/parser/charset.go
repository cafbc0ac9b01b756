package parser

import (
	"fmt"
	"io"
	"mime"
	"strings"

	"golang.org/x/net/html/charset"
)

// NewUTF8Reader converts body to UTF-8 when contentType declares another charset.
// Bodies without a charset parameter, or declaring UTF-8, are returned untouched;
// the content itself is never sniffed.
func NewUTF8Reader(body io.Reader, contentType string) (io.Reader, error) {
	if contentType == "" {
		return body, nil
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return body, nil
	}
	label := strings.TrimSpace(params["charset"])
	if label == "" {
		return body, nil
	}

	enc, name := charset.Lookup(label)
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	if name == "utf-8" {
		return body, nil
	}
	return enc.NewDecoder().Reader(body), nil
}
