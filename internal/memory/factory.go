package memory

// New returns a VectorStore when embedder is non-nil, otherwise a
// BleveStore for full-text fallback — matching the "memories"
// module's recall semantics: "nearest-neighbor over the embedding
// of query if an embedder is configured, else substring match."
func New(embedder Embedder) (Store, error) {
	if embedder != nil {
		return NewVectorStore(embedder), nil
	}
	return NewBleveStore()
}
