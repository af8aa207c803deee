// Package figmaurl extracts file keys and node identifiers from design-tool
// share links. Frame references in object schemas are plain Figma URLs; the
// export API wants the pieces separately.
package figmaurl

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	fileKeyPattern = regexp.MustCompile(`figma\.com/(?:file|proto|design)/([a-zA-Z0-9]+)`)
	nodeIDPattern  = regexp.MustCompile(`node-id=([\d:-]+)`)
)

// FileKey returns the document key embedded in a Figma file, proto, or design
// URL.
func FileKey(rawURL string) (string, error) {
	match := fileKeyPattern.FindStringSubmatch(rawURL)
	if match == nil {
		return "", fmt.Errorf("figmaurl: no file key in %q", rawURL)
	}
	return match[1], nil
}

// NodeID returns the node-id query parameter as it appears in the URL,
// hyphen-separated (e.g. "14494-411").
func NodeID(rawURL string) (string, error) {
	match := nodeIDPattern.FindStringSubmatch(rawURL)
	if match == nil {
		return "", fmt.Errorf("figmaurl: no node-id in %q", rawURL)
	}
	return strings.ReplaceAll(match[1], ":", "-"), nil
}

// CanonicalNodeID converts a hyphenated node id into the colon form the
// export API uses to key its response map.
func CanonicalNodeID(nodeID string) string {
	return strings.ReplaceAll(nodeID, "-", ":")
}
