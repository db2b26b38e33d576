// Package hexdump renders arena bytes as offset / hex / glyph rows.
//
// The glyph column decodes each byte through a single-byte code page so that
// poison and high bytes stay distinguishable (0xAA shows as '¬' under CP437
// rather than a dot). Non-printable runes fall back to '.'.
package hexdump

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"
)

// Options controls the layout.
type Options struct {
	// Width is the number of bytes per row. Zero means 16.
	Width int

	// Base is added to every printed offset.
	Base int

	// Charmap decodes the glyph column. Nil means CodePage437.
	Charmap *charmap.Charmap

	// Squeeze replaces runs of rows identical to the previous one with a single "*".
	Squeeze bool
}

// Dump writes data 16 bytes per row, offsets starting at base, repeated rows squeezed.
func Dump(w io.Writer, data []byte, base int) error {
	return DumpWith(w, data, Options{Base: base, Squeeze: true})
}

// String returns Dump's output.
func String(data []byte, base int) string {
	var sb strings.Builder
	_ = Dump(&sb, data, base)
	return sb.String()
}

// DumpWith writes data using opts.
func DumpWith(w io.Writer, data []byte, opts Options) error {
	width := opts.Width
	if width <= 0 {
		width = 16
	}
	cm := opts.Charmap
	if cm == nil {
		cm = charmap.CodePage437
	}

	var prev []byte
	squeezed := false
	var line strings.Builder
	for off := 0; off < len(data); off += width {
		row := data[off:min(off+width, len(data))]
		if opts.Squeeze && prev != nil && len(row) == width && bytes.Equal(row, prev) {
			if !squeezed {
				if _, err := io.WriteString(w, "*\n"); err != nil {
					return err
				}
				squeezed = true
			}
			continue
		}
		prev, squeezed = row, false

		line.Reset()
		fmt.Fprintf(&line, "%08x  ", opts.Base+off)
		for i := range width {
			if i < len(row) {
				fmt.Fprintf(&line, "%02x ", row[i])
			} else {
				line.WriteString("   ")
			}
			if i == width/2-1 {
				line.WriteByte(' ')
			}
		}
		line.WriteByte('|')
		for _, b := range row {
			line.WriteRune(Glyph(cm, b))
		}
		line.WriteString("|\n")
		if _, err := io.WriteString(w, line.String()); err != nil {
			return err
		}
	}

	if opts.Squeeze && squeezed {
		// Close a trailing squeeze with the end offset, as hexdump(1) does.
		if _, err := fmt.Fprintf(w, "%08x\n", opts.Base+len(data)); err != nil {
			return err
		}
	}
	return nil
}

// Glyph decodes b through cm, returning '.' for anything not printable.
func Glyph(cm *charmap.Charmap, b byte) rune {
	r := cm.DecodeByte(b)
	if r == unicode.ReplacementChar || !unicode.IsPrint(r) {
		return '.'
	}
	return r
}
