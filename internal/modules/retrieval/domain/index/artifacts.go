package index

import (
	"fmt"
	"regexp"
	"strings"
)

// Artifact naming conventions. The filenames are part of the on-disk
// contract: the registry falls back to substring matches on them, and the
// provider resolver recovers the provider token from embedding filenames.

// EmbeddingFileName returns {documentId}_{timestamp}_{provider}_embeddings.json.
func EmbeddingFileName(set *EmbeddingSet) string {
	return fmt.Sprintf("%s_%s_%s_embeddings.json", set.DocumentID, set.Timestamp, set.Provider)
}

// DescriptorFileName returns {documentId}_{timestamp}_{vectorDbKind}_{indexName}_v{version}.json.
func DescriptorFileName(d *IndexDescriptor) string {
	return fmt.Sprintf("%s_%s_%s_%s_v%s.json", d.DocumentID, d.Timestamp, d.VectorDB, d.IndexName, d.Version)
}

// SearchFileName returns search_{searchId}_{timestamp}.json.
func SearchFileName(r *SearchResponse) string {
	return fmt.Sprintf("search_%s_%s.json", r.SearchID, r.Timestamp)
}

// ProviderFromEmbeddingFileName extracts the provider token out of an
// embedding artifact filename, or "" when the name does not follow the
// convention.
func ProviderFromEmbeddingFileName(name string) string {
	base := strings.TrimSuffix(name, ".json")
	if !strings.HasSuffix(base, "_embeddings") {
		return ""
	}
	base = strings.TrimSuffix(base, "_embeddings")
	i := strings.LastIndex(base, "_")
	if i < 0 || i == len(base)-1 {
		return ""
	}
	return base[i+1:]
}

var documentIDSuffix = regexp.MustCompile(`_\d{8}_\d{6}$`)

// DocumentFilenameFromID strips the registration timestamp off a document
// id formed as {sanitizedFilename}_{timestamp}. Best effort: ids that do
// not follow the convention are returned unchanged.
func DocumentFilenameFromID(documentID string) string {
	return documentIDSuffix.ReplaceAllString(documentID, "")
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeName makes a token safe for use inside artifact filenames and
// backend collection names.
func SanitizeName(s string) string {
	s = strings.TrimSpace(s)
	s = unsafeNameChars.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}
