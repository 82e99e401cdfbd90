package jsonman

import (
	"github.com/tidwall/pretty"
	"github.com/valyala/fastjson"
)

//------------------------------------------------------------------------------
// OUTPUT FORMATTING
//------------------------------------------------------------------------------

// FormatOptions contains formatting configuration for repaired documents.
type FormatOptions struct {
	Indent   string // indentation string; empty means minify
	Prefix   string // prefix prepended to every line
	SortKeys bool   // sort object keys
	Width    int    // max column width before values wrap, 0 means 80
}

// Pretty formats JSON with 2-space indentation.
func Pretty(data []byte) ([]byte, error) {
	if !Valid(data) {
		return nil, ErrInvalidJSON
	}
	return pretty.Pretty(data), nil
}

// PrettyWithOptions formats JSON with custom options. An empty indent
// minifies the document instead.
func PrettyWithOptions(data []byte, opts *FormatOptions) ([]byte, error) {
	if !Valid(data) {
		return nil, ErrInvalidJSON
	}
	return formatBytes(data, opts), nil
}

// Ugly removes all unnecessary whitespace.
func Ugly(data []byte) ([]byte, error) {
	if !Valid(data) {
		return nil, ErrInvalidJSON
	}
	return pretty.Ugly(data), nil
}

// Valid checks if JSON is valid.
func Valid(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	return fastjson.ValidateBytes(data) == nil
}

// formatBytes assumes data is already valid.
func formatBytes(data []byte, opts *FormatOptions) []byte {
	if opts == nil {
		return pretty.Pretty(data)
	}
	if opts.Indent == "" {
		return pretty.Ugly(data)
	}
	width := opts.Width
	if width == 0 {
		width = 80
	}
	return pretty.PrettyOptions(data, &pretty.Options{
		Width:    width,
		Prefix:   opts.Prefix,
		Indent:   opts.Indent,
		SortKeys: opts.SortKeys,
	})
}
