package emit

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strings"
)

// hashLength is the number of hex characters of content hashes in names
const hashLength = 20

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:hashLength]
}

// expand fills the [name], [hash], [contenthash] and [ext] placeholders
func expand(pattern, name, ext string, content []byte) string {
	r := strings.NewReplacer(
		"[name]", name,
		"[hash]", contentHash(content),
		"[contenthash]", contentHash(content),
		"[ext]", ext,
	)
	return r.Replace(pattern)
}

// chunkFileName names a chunk's script or stylesheet. A pattern without
// [name] is a literal name and applies to the primary chunk only; other
// chunks fall back to <name><ext>.
func chunkFileName(pattern, chunk, ext string, primary bool, content []byte) string {
	if !strings.Contains(pattern, "[name]") && !primary {
		return chunk + ext
	}
	return expand(pattern, chunk, ext, content)
}

// assetFileName names an asset module's output file
func assetFileName(pattern, modulePath string, content []byte) string {
	base := path.Base(modulePath)
	ext := path.Ext(base)
	return expand(pattern, strings.TrimSuffix(base, ext), ext, content)
}
