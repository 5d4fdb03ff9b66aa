// Package json provides JSON serialization with pooled buffers on top of
// goccy/go-json. HTML escaping is disabled everywhere so policy XML embedded
// in documents stays readable.
package json

import (
	"bytes"
	"io"
	"sync"

	gojson "github.com/goccy/go-json"
)

// DefaultIndent is the indentation of generated documents
const DefaultIndent = "  "

// maxPooledBuffer is the largest buffer kept in the pool
const maxPooledBuffer = 1024 * 1024

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// GetBuffer gets a pooled bytes.Buffer
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > maxPooledBuffer {
		return
	}
	bufferPool.Put(buf)
}

// NewEncoder returns an encoder writing to w with HTML escaping disabled
func NewEncoder(w io.Writer) *gojson.Encoder {
	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}

// NewDecoder returns a decoder reading numbers as json.Number
func NewDecoder(r io.Reader) *gojson.Decoder {
	dec := gojson.NewDecoder(r)
	dec.UseNumber()
	return dec
}

// Marshal is a drop-in replacement for json.Marshal without HTML escaping
func Marshal(v interface{}) ([]byte, error) {
	return encode(v, "")
}

// MarshalIndent marshals v with the given indent and no HTML escaping. The
// result carries no trailing newline.
func MarshalIndent(v interface{}, indent string) ([]byte, error) {
	return encode(v, indent)
}

// Unmarshal is a drop-in replacement for json.Unmarshal
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// MarshalToWriter writes v to w as indented JSON followed by a newline
func MarshalToWriter(w io.Writer, v interface{}, indent string) error {
	enc := NewEncoder(w)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(v)
}

func encode(v interface{}, indent string) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	if err := MarshalToWriter(buf, v, indent); err != nil {
		return nil, err
	}

	// Create a copy since the buffer goes back to the pool
	data := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})
	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}
