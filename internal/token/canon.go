package token

import (
	"bytes"
	"encoding/base64"
	"sort"
	"strconv"
)

var segmentEncoding = base64.RawURLEncoding

// Canon returns the primary signing input for header and claims:
// base64url(JCS(header)) "." base64url(JCS(claims)).
//
// The header passed here never carries the secondary signature. Issuer and
// verifier both call Canon, so the bytes covered by every signature are
// reconstructed from the decoded values and not taken from the wire.
func Canon(header Header, claims Claims) []byte {
	h := encodeSegment(header.members(false))
	c := encodeSegment(claims.members())

	out := make([]byte, 0, len(h)+1+len(c))
	out = append(out, h...)
	out = append(out, '.')
	return append(out, c...)
}

func encodeSegment(members map[string]any) []byte {
	raw := canonicalJSON(members)
	out := make([]byte, segmentEncoding.EncodedLen(len(raw)))
	segmentEncoding.Encode(out, raw)
	return out
}

// canonicalJSON writes an RFC 8785 object whose values are strings or int64.
// Keys are ASCII, so byte order equals the UTF-16 order JCS requires.
func canonicalJSON(members map[string]any) []byte {
	keys := make([]string, 0, len(members))
	for k := range members {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, k)
		buf.WriteByte(':')
		switch v := members[k].(type) {
		case string:
			writeString(buf, v)
		case int64:
			buf.WriteString(strconv.FormatInt(v, 10))
		default:
			panic("token: unsupported canonical value type")
		}
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			buf.WriteByte('\\')
			buf.WriteRune(r)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hexLower[r>>4])
				buf.WriteByte(hexLower[r&0x0f])
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}

var hexLower = []byte("0123456789abcdef")
