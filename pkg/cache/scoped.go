package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments can share
// one Redis database without reading each other's entries.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	if prefix == "" {
		return inner
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// PartitionKey generates a prefixed partition key.
func (k *ScopedKeyer) PartitionKey(maskHash string, opts PartitionKeyOpts) string {
	return k.prefix + k.inner.PartitionKey(maskHash, opts)
}
