package types

import (
	"path"
	"strings"
)

// ContentType is the coarse classification of a source file inferred from
// its extension
type ContentType string

const (
	ContentScript  ContentType = "script"
	ContentStyle   ContentType = "style"
	ContentAsset   ContentType = "asset"
	ContentData    ContentType = "data"
	ContentMarkup  ContentType = "markup"
	ContentUnknown ContentType = "unknown"
)

var contentTypes = map[string]ContentType{
	".js":    ContentScript,
	".jsx":   ContentScript,
	".mjs":   ContentScript,
	".cjs":   ContentScript,
	".ts":    ContentScript,
	".tsx":   ContentScript,
	".css":   ContentStyle,
	".less":  ContentStyle,
	".sass":  ContentStyle,
	".scss":  ContentStyle,
	".png":   ContentAsset,
	".jpg":   ContentAsset,
	".jpeg":  ContentAsset,
	".gif":   ContentAsset,
	".svg":   ContentAsset,
	".webp":  ContentAsset,
	".ico":   ContentAsset,
	".woff":  ContentAsset,
	".woff2": ContentAsset,
	".eot":   ContentAsset,
	".ttf":   ContentAsset,
	".otf":   ContentAsset,
	".json":  ContentData,
	".csv":   ContentData,
	".tsv":   ContentData,
	".xml":   ContentData,
	".html":  ContentMarkup,
	".htm":   ContentMarkup,
}

// ContentTypeFor infers the content type from the path's extension
func ContentTypeFor(p string) ContentType {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(p))]; ok {
		return ct
	}
	return ContentUnknown
}

// SourceFile is a project file as read from disk. It is immutable once
// created; stages never modify Content in place.
type SourceFile struct {
	Path        string
	Content     []byte
	ContentType ContentType
}

// NewSourceFile creates a SourceFile and tags it with its content type
func NewSourceFile(p string, content []byte) *SourceFile {
	return &SourceFile{
		Path:        p,
		Content:     content,
		ContentType: ContentTypeFor(p),
	}
}

// Ext returns the lower-cased extension including the dot
func (f *SourceFile) Ext() string {
	return strings.ToLower(path.Ext(f.Path))
}
