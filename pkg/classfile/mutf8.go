// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package classfile

import (
	"errors"
	"unicode/utf16"
	"unicode/utf8"
)

// ErrInvalidModifiedUTF8 is returned when a Utf8 constant is not valid
// modified UTF-8.
var ErrInvalidModifiedUTF8 = errors.New("invalid modified utf-8")

// ModifiedUTF8Len returns the number of bytes s occupies once encoded as
// modified UTF-8.
func ModifiedUTF8Len(s string) int {
	n := 0
	for _, r := range s {
		switch {
		case r != 0 && r < 0x80:
			n++
		case r < 0x800:
			n += 2
		case r <= 0xFFFF:
			n += 3
		default:
			// Supplementary characters become a surrogate pair.
			n += 6
		}
	}

	return n
}

// AppendModifiedUTF8 appends the modified UTF-8 encoding of s to b.
// NUL is written as two bytes and supplementary characters as an encoded
// surrogate pair.
func AppendModifiedUTF8(b []byte, s string) []byte {
	for _, r := range s {
		switch {
		case r != 0 && r < 0x80:
			b = append(b, byte(r))
		case r < 0x800:
			b = append(b, 0xC0|byte(r>>6), 0x80|byte(r&0x3F))
		case r <= 0xFFFF:
			b = appendThreeByte(b, r)
		default:
			hi, lo := utf16.EncodeRune(r)
			b = appendThreeByte(b, hi)
			b = appendThreeByte(b, lo)
		}
	}

	return b
}

func appendThreeByte(b []byte, r rune) []byte {
	return append(b, 0xE0|byte(r>>12), 0x80|byte((r>>6)&0x3F), 0x80|byte(r&0x3F))
}

// DecodeModifiedUTF8 decodes a modified UTF-8 byte sequence. Unpaired
// surrogates decode to utf8.RuneError.
func DecodeModifiedUTF8(b []byte) (string, error) {
	out := make([]byte, 0, len(b))
	var pending rune = -1

	flush := func() {
		if pending >= 0 {
			out = utf8.AppendRune(out, utf8.RuneError)
			pending = -1
		}
	}

	for i := 0; i < len(b); {
		c := b[i]
		var r rune
		switch {
		case c&0x80 == 0:
			if c == 0 {
				return "", ErrInvalidModifiedUTF8
			}
			r = rune(c)
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(b) || b[i+1]&0xC0 != 0x80 {
				return "", ErrInvalidModifiedUTF8
			}
			r = rune(c&0x1F)<<6 | rune(b[i+1]&0x3F)
			i += 2
		case c&0xF0 == 0xE0:
			if i+2 >= len(b) || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 {
				return "", ErrInvalidModifiedUTF8
			}
			r = rune(c&0x0F)<<12 | rune(b[i+1]&0x3F)<<6 | rune(b[i+2]&0x3F)
			i += 3
		default:
			return "", ErrInvalidModifiedUTF8
		}

		switch {
		case utf16.IsSurrogate(r) && r < 0xDC00:
			flush()
			pending = r
		case utf16.IsSurrogate(r):
			if pending < 0 {
				out = utf8.AppendRune(out, utf8.RuneError)
				continue
			}
			out = utf8.AppendRune(out, utf16.DecodeRune(pending, r))
			pending = -1
		default:
			flush()
			out = utf8.AppendRune(out, r)
		}
	}
	flush()

	return string(out), nil
}
