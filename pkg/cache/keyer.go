package cache

// ResultKeyOpts are the options that influence an optimization result.
type ResultKeyOpts struct {
	Engine    string `json:"engine"`
	Policy    string `json:"policy"`
	MaxLeaves int    `json:"max_leaves,omitempty"`
	Scoring   string `json:"scoring,omitempty"` // hash of the scoring configuration
}

// Keyer builds cache keys.
type Keyer interface {
	// ResultKey returns the key of an optimization result for a market.
	ResultKey(marketHash string, opts ResultKeyOpts) string
}

// DefaultKeyer builds keys of the form "result:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ResultKey implements Keyer.
func (DefaultKeyer) ResultKey(marketHash string, opts ResultKeyOpts) string {
	return hashKey("result", marketHash, opts)
}

// ScopedKeyer prefixes every key of an inner keyer, for example with the
// build version.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer selects
// the default keyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ResultKey implements Keyer.
func (k *ScopedKeyer) ResultKey(marketHash string, opts ResultKeyOpts) string {
	return k.prefix + k.inner.ResultKey(marketHash, opts)
}
