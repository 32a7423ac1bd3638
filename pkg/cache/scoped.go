package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments can share
// one Redis instance without seeing each other's entries.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "flyersmith:staging:")
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
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// PlanKey generates a prefixed key for planning completions.
func (k *ScopedKeyer) PlanKey(model, prompt string) string {
	return k.prefix + k.inner.PlanKey(model, prompt)
}

// ImageKey generates a prefixed key for generated images.
func (k *ScopedKeyer) ImageKey(model, prompt string, opts ImageKeyOpts) string {
	return k.prefix + k.inner.ImageKey(model, prompt, opts)
}

// CritiqueKey generates a prefixed key for critique completions.
func (k *ScopedKeyer) CritiqueKey(model, prompt string) string {
	return k.prefix + k.inner.CritiqueKey(model, prompt)
}
