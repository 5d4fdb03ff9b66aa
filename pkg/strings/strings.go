// Package strings provides pooled string building and the identifier transforms
// used when deriving display names for apimtpl entities.
package strings

import (
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// Builder provides efficient string building backed by a reusable buffer
type Builder struct {
	buf []byte
}

// NewBuilder creates a new string builder
func NewBuilder(capacity int) *Builder {
	return &Builder{
		buf: make([]byte, 0, capacity),
	}
}

// WriteString appends a string to the builder
func (b *Builder) WriteString(s string) {
	b.buf = append(b.buf, s...)
}

// WriteByte appends a single byte
func (b *Builder) WriteByte(c byte) error {
	b.buf = append(b.buf, c)
	return nil
}

// WriteRune appends the UTF-8 encoding of r
func (b *Builder) WriteRune(r rune) {
	b.buf = utf8.AppendRune(b.buf, r)
}

// Write implements io.Writer interface
func (b *Builder) Write(p []byte) (n int, err error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// String returns a copy of the built string
func (b *Builder) String() string {
	return string(b.buf)
}

// Len returns the length of the built string
func (b *Builder) Len() int {
	return len(b.buf)
}

// Reset resets the builder for reuse
func (b *Builder) Reset() {
	b.buf = b.buf[:0]
}

// Global pools for different string building scenarios
var (
	// Small strings (< 1KB): names, identifiers, error messages
	smallBuilderPool = &sync.Pool{
		New: func() interface{} {
			return NewBuilder(1024)
		},
	}

	// Large strings: policy documents and joined violation lists
	largeBuilderPool = &sync.Pool{
		New: func() interface{} {
			return NewBuilder(16 * 1024)
		},
	}
)

// BuilderSize represents different builder sizes
type BuilderSize int

const (
	Small BuilderSize = iota // < 1KB
	Large                    // 1KB+
)

func sizeFor(n int) BuilderSize {
	if n > 1024 {
		return Large
	}
	return Small
}

// GetBuilder retrieves a pooled builder of the specified size
func GetBuilder(size BuilderSize) *Builder {
	pool := smallBuilderPool
	if size == Large {
		pool = largeBuilderPool
	}
	builder := pool.Get().(*Builder)
	builder.Reset()
	return builder
}

// PutBuilder returns a builder to the appropriate pool
func PutBuilder(builder *Builder, size BuilderSize) {
	if builder == nil {
		return
	}
	pool := smallBuilderPool
	if size == Large {
		pool = largeBuilderPool
	}
	builder.Reset()
	pool.Put(builder)
}

// Concat efficiently concatenates strings using pooled builder
func Concat(parts ...string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}

	totalLen := 0
	for _, s := range parts {
		totalLen += len(s)
	}

	size := sizeFor(totalLen)
	builder := GetBuilder(size)
	defer PutBuilder(builder, size)

	for _, s := range parts {
		builder.WriteString(s)
	}
	return builder.String()
}

// Sprintf provides a pooled alternative to fmt.Sprintf
func Sprintf(format string, args ...interface{}) string {
	if len(args) == 0 {
		return format
	}

	size := sizeFor(len(format) + len(args)*16)
	builder := GetBuilder(size)
	defer PutBuilder(builder, size)

	fmt.Fprintf(builder, format, args...)
	return builder.String()
}

// JoinPooled joins strings with delimiter using a pooled builder
func JoinPooled(parts []string, delimiter string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}

	totalLen := (len(parts) - 1) * len(delimiter)
	for _, s := range parts {
		totalLen += len(s)
	}

	size := sizeFor(totalLen)
	builder := GetBuilder(size)
	defer PutBuilder(builder, size)

	builder.WriteString(parts[0])
	for _, s := range parts[1:] {
		builder.WriteString(delimiter)
		builder.WriteString(s)
	}
	return builder.String()
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isASCIIAlnum(r rune) bool {
	return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
}

// TitleCase capitalizes the first character of every alphanumeric run and
// lowercases the rest of the run. Separators are kept as they are.
//
//	TitleCase("order-items")  // "Order-Items"
//	TitleCase("API key")      // "Api Key"
func TitleCase(s string) string {
	builder := GetBuilder(Small)
	defer PutBuilder(builder, Small)

	inRun := false
	for _, r := range s {
		switch {
		case !isAlnum(r):
			inRun = false
		case !inRun:
			r = unicode.ToUpper(r)
			inRun = true
		default:
			r = unicode.ToLower(r)
		}
		builder.WriteRune(r)
	}
	return builder.String()
}

// StartsWithUpper reports whether the first character of s is an uppercase letter
func StartsWithUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r != utf8.RuneError && unicode.IsUpper(r)
}

// StripNonAlnum removes every character that is not an ASCII letter or digit,
// so the result is safe inside ARM identifiers.
func StripNonAlnum(s string) string {
	return strings.Map(func(r rune) rune {
		if isASCIIAlnum(r) {
			return r
		}
		return -1
	}, s)
}
