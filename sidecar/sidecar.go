// Package sidecar parses the optional key=value companion file that may sit
// next to an image in the repository, carrying user-supplied metadata.
package sidecar

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Extension is the fixed sidecar file extension. photo.jpg pairs with
// photo.meta
const Extension = ".meta"

// TagsField is the reserved multi-value field name, matched case-sensitively
const TagsField = "tags"

// Metadata is the parsed content of one sidecar file. Fields holds scalar
// values keyed by field name; the reserved tags field is split out
type Metadata struct {
	Fields map[string]string
	Tags   []string
}

// IsEmpty reports whether the sidecar contributed nothing
func (m Metadata) IsEmpty() bool {
	return len(m.Fields) == 0 && len(m.Tags) == 0
}

// PathFor returns the sidecar path for an image path, replacing the image
// extension with the sidecar extension
func PathFor(imagePath string) string {
	ext := filepath.Ext(imagePath)
	return strings.TrimSuffix(imagePath, ext) + Extension
}

// Parse reads the sidecar next to imagePath. a missing sidecar is not an
// error and yields an empty result. each line is split on the first '='
// only, so values may contain '='; malformed lines are skipped with a
// warning. duplicate keys: last occurrence wins. the tags field is split on
// commas with per-element trimming and empty pieces dropped; all other
// values are stored verbatim
func Parse(imagePath string) (Metadata, error) {
	meta := Metadata{Fields: make(map[string]string)}

	sidecarPath := PathFor(imagePath)
	file, err := os.Open(sidecarPath)
	if err != nil {
		if os.IsNotExist(err) {
			return meta, nil
		}
		return meta, fmt.Errorf("failed to open sidecar %s: %w", sidecarPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		eq := strings.Index(line, "=")
		if eq < 0 {
			log.Printf("sidecar: %s line %d has no '=', skipping: %q", sidecarPath, lineNo, line)
			continue
		}
		if eq == 0 {
			log.Printf("sidecar: %s line %d has empty key, skipping: %q", sidecarPath, lineNo, line)
			continue
		}

		key := line[:eq]
		value := line[eq+1:]

		if key == TagsField {
			meta.Tags = splitTags(value)
			continue
		}
		meta.Fields[key] = value
	}
	if err := scanner.Err(); err != nil {
		return meta, fmt.Errorf("failed to read sidecar %s: %w", sidecarPath, err)
	}

	return meta, nil
}

// splitTags splits a tags value on commas, trims each piece and drops empties,
// preserving order
func splitTags(value string) []string {
	var tags []string
	for _, piece := range strings.Split(value, ",") {
		tag := strings.TrimSpace(piece)
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}
