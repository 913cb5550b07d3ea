package cache

// ScopedKeyer prefixes every key of another Keyer. The server uses it to
// keep the entries of separate deployments sharing one Redis apart:
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) ConstructKey(topology string, blocks []string, opts ConstructKeyOpts) string {
	return k.prefix + k.inner.ConstructKey(topology, blocks, opts)
}

func (k *ScopedKeyer) ArtifactKey(constructKey string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(constructKey, opts)
}

func (k *ScopedKeyer) RenderKey(topology string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(topology, opts)
}
