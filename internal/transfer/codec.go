package transfer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"

	"sitelog/internal/core"
)

// Codec turns the entry collection into bytes and back. Import is
// all-or-nothing: either every entry decodes or an error wrapping
// core.ErrFormat is returned.
type Codec interface {
	Name() string
	ContentType() string
	Export(entries []core.Entry) ([]byte, error)
	Import(data []byte) ([]core.Entry, error)
}

// Supported format names.
const (
	FormatJSON = "json"
	FormatCBOR = "cbor"
)

// ForFormat returns the codec registered under name.
func ForFormat(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", FormatJSON:
		return NewJSONCodec(), nil
	case FormatCBOR:
		return NewCBORCodec()
	}
	return nil, fmt.Errorf("%w: unknown export format %q", core.ErrFormat, name)
}

type JSONCodec struct {
	now func() time.Time
}

func NewJSONCodec() *JSONCodec {
	return &JSONCodec{now: time.Now}
}

func (*JSONCodec) Name() string        { return FormatJSON }
func (*JSONCodec) ContentType() string { return "application/json" }

func (c *JSONCodec) Export(entries []core.Entry) ([]byte, error) {
	b, err := json.MarshalIndent(NewDocument(entries, c.now()), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode json export: %w", err)
	}
	return b, nil
}

// Import accepts an export document or a bare array of entries.
func (c *JSONCodec) Import(data []byte) ([]core.Entry, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", core.ErrFormat)
	}
	if trimmed[0] == '[' {
		var docs []entryDoc
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrFormat, err)
		}
		return entriesFromDocs(docs)
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: expected an export document or an entry array", core.ErrFormat)
	}
	var doc incomingDocument
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrFormat, err)
	}
	return doc.decode()
}

type CBORCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
	now func() time.Time
}

func NewCBORCodec() (*CBORCodec, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("cbor enc mode: %w", err)
	}
	dec, err := cbor.DecOptions{DupMapKey: cbor.DupMapKeyEnforcedAPF}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("cbor dec mode: %w", err)
	}
	return &CBORCodec{enc: enc, dec: dec, now: time.Now}, nil
}

func (*CBORCodec) Name() string        { return FormatCBOR }
func (*CBORCodec) ContentType() string { return "application/cbor" }

func (c *CBORCodec) Export(entries []core.Entry) ([]byte, error) {
	b, err := c.enc.Marshal(NewDocument(entries, c.now()))
	if err != nil {
		return nil, fmt.Errorf("encode cbor export: %w", err)
	}
	return b, nil
}

func (c *CBORCodec) Import(data []byte) ([]core.Entry, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", core.ErrFormat)
	}
	var doc incomingDocument
	if err := c.dec.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrFormat, err)
	}
	return doc.decode()
}
