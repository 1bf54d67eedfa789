package resource

import (
	"errors"
	"strings"

	"go.trai.ch/zerr"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// lookupEncoding returns nil for UTF-8 and the empty name, which need no
// transformation.
func lookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return nil, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, errors.Join(ErrUnknownEncoding, zerr.With(zerr.New("unsupported encoding"), "encoding", name))
	}

	return enc, nil
}

// ValidateEncoding checks that name is a known IANA character set.
func ValidateEncoding(name string) error {
	_, err := lookupEncoding(name)
	return err
}

// Decode converts data in the named encoding to a UTF-8 string.
func Decode(data []byte, name string) (string, error) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return "", err
	}

	if enc == nil {
		return string(data), nil
	}

	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", zerr.Wrap(err, "failed to decode content")
	}

	return string(out), nil
}

// Encode converts text to the named encoding.
func Encode(text, name string) ([]byte, error) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}

	if enc == nil {
		return []byte(text), nil
	}

	out, err := enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, zerr.Wrap(err, "failed to encode content")
	}

	return out, nil
}
