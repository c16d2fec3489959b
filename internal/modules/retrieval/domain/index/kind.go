package index

import "VectorLink/pkg/xerr"

// VectorDBKind is the closed set of index backend representations.
type VectorDBKind string

const (
	// KindFlatCosine is an in-process flat structure with unit-normalized
	// vectors, serialized to a single binary file per index.
	KindFlatCosine VectorDBKind = "flat-cosine"
	// KindDocumentStore is a persistent per-collection table keyed by a
	// distance function.
	KindDocumentStore VectorDBKind = "document-store"
	// KindRemoteANN is a networked approximate-nearest-neighbor service.
	KindRemoteANN VectorDBKind = "remote-ann"
)

// ParseVectorDBKind validates a kind token. Unknown kinds are Unsupported,
// not a silent fall-through.
func ParseVectorDBKind(s string) (VectorDBKind, error) {
	switch VectorDBKind(s) {
	case KindFlatCosine, KindDocumentStore, KindRemoteANN:
		return VectorDBKind(s), nil
	default:
		return "", xerr.NewUnsupported("unknown vector db kind: %q", s)
	}
}

func (k VectorDBKind) String() string { return string(k) }

// Embedding provider families.
const (
	ProviderOpenAI    = "openai"
	ProviderArk       = "ark"
	ProviderDashscope = "dashscope"
	ProviderOllama    = "ollama"
	ProviderMock      = "mock"
)

// KnownProvider reports whether the token names a provider family this
// service can dispatch to.
func KnownProvider(p string) bool {
	switch p {
	case ProviderOpenAI, ProviderArk, ProviderDashscope, ProviderOllama, ProviderMock:
		return true
	default:
		return false
	}
}
