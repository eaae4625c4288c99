package emit

import (
	"bytes"
	"encoding/json"
	"strings"
)

// sourceMap is a version 3 source map
type sourceMap struct {
	Version        int      `json:"version"`
	File           string   `json:"file"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// mapSegment is one concatenated module: its generated text and the
// original source it came from
type mapSegment struct {
	source    string
	generated []byte
	original  []byte
}

const base64Digits = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// appendVLQ appends the base64 VLQ encoding of v
func appendVLQ(sb *strings.Builder, v int) {
	u := v << 1
	if v < 0 {
		u = (-v << 1) | 1
	}
	for {
		digit := u & 31
		u >>= 5
		if u > 0 {
			digit |= 32
		}
		sb.WriteByte(base64Digits[digit])
		if u == 0 {
			return
		}
	}
}

func lineCount(b []byte) int {
	return bytes.Count(b, []byte("\n")) + 1
}

// buildSourceMap maps every generated line of segments joined by single
// newlines to the same line of its source, clamped to the source's
// length. Each line maps from its first column.
func buildSourceMap(file string, segments []mapSegment) ([]byte, error) {
	sm := sourceMap{
		Version:        3,
		File:           file,
		Sources:        make([]string, 0, len(segments)),
		SourcesContent: make([]string, 0, len(segments)),
		Names:          []string{},
	}

	var mappings strings.Builder
	prevSource, prevLine := 0, 0
	sourceIndex := make(map[string]int)

	for i, seg := range segments {
		idx, ok := sourceIndex[seg.source]
		if !ok {
			idx = len(sm.Sources)
			sourceIndex[seg.source] = idx
			sm.Sources = append(sm.Sources, seg.source)
			sm.SourcesContent = append(sm.SourcesContent, string(seg.original))
		}

		genLines := lineCount(seg.generated)
		srcLines := lineCount(seg.original)
		for line := 0; line < genLines; line++ {
			if i > 0 || line > 0 {
				mappings.WriteByte(';')
			}
			srcLine := line
			if srcLine >= srcLines {
				srcLine = srcLines - 1
			}
			// generated column, source index, source line, source column
			appendVLQ(&mappings, 0)
			appendVLQ(&mappings, idx-prevSource)
			appendVLQ(&mappings, srcLine-prevLine)
			appendVLQ(&mappings, 0)
			prevSource, prevLine = idx, srcLine
		}
	}
	sm.Mappings = mappings.String()
	return json.Marshal(sm)
}

// sourceMapTrailer returns the comment that links a file to its map
func sourceMapTrailer(mapName string, style bool) string {
	if style {
		return "\n/*# sourceMappingURL=" + mapName + " */\n"
	}
	return "\n//# sourceMappingURL=" + mapName + "\n"
}
