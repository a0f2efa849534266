package cacheable

// Declared is the declarative surface of an action. Only Cache is required.
//
//	Cache action:  Cache, Key, Opts, Match
//	Evict action:  Cache, Key, Keys, AllEntries
//	Update action: Cache, Key, Opts, Match
type Declared struct {
	Cache      Adapter
	Key        Key       // nil => DeriveKey(identity)
	Keys       []Key     // evict only; deleted after Key, in order
	Opts       Options   // passed to Get/Set; return=value is always forced
	Match      Predicate // nil => Always
	AllEntries bool      // evict only; flush instead of deletes
	Logger     Logger    // nil => NopLogger
}

// Spec is a resolved, immutable action specification. Build it once per
// wrapped operation and reuse it for every call.
type Spec struct {
	kind       Kind
	id         Identity
	cache      Adapter
	key        Key
	keys       []Key
	opts       Options
	match      Predicate
	allEntries bool
	log        Logger
}

// Resolve validates d and fills defaults. It fails with *ConfigurationError
// when d.Cache is nil, kind is unknown, or neither d.Key nor id is set.
func Resolve(kind Kind, d Declared, id Identity) (*Spec, error) {
	switch kind {
	case KindCache, KindEvict, KindUpdate:
	default:
		return nil, &ConfigurationError{Field: "kind", Reason: "unknown action " + kind.String()}
	}
	if d.Cache == nil {
		return nil, &ConfigurationError{Field: "cache", Reason: "cache is required for " + kind.String() + " on " + id.String()}
	}
	if d.Key == nil && id == (Identity{}) {
		return nil, &ConfigurationError{Field: "key", Reason: "an explicit key or a non-empty identity is required for " + kind.String()}
	}

	s := &Spec{
		kind:       kind,
		id:         id,
		cache:      d.Cache,
		key:        d.Key,
		keys:       append([]Key{}, d.Keys...),
		opts:       d.Opts.with(Options{OptReturn: ReturnValue}),
		match:      d.Match,
		allEntries: kind == KindEvict && d.AllEntries,
	}
	if s.key == nil {
		s.key = DeriveKey(id)
	}
	if s.match == nil {
		s.match = Always
	}
	s.log = coalesce[Logger](d.Logger, NopLogger{})
	return s, nil
}

// MustResolve is like Resolve but panics on error. Handy for package-level wiring.
func MustResolve(kind Kind, d Declared, id Identity) *Spec {
	s, err := Resolve(kind, d, id)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Spec) Kind() Kind         { return s.kind }
func (s *Spec) Identity() Identity { return s.id }
func (s *Spec) Cache() Adapter     { return s.cache }
func (s *Spec) Key() Key           { return s.key }
func (s *Spec) AllEntries() bool   { return s.allEntries }

// Keys returns a copy of the additional evict keys.
func (s *Spec) Keys() []Key { return append([]Key{}, s.keys...) }

// Options returns a copy of the options passed to the backend.
func (s *Spec) Options() Options { return s.opts.with(nil) }

// Match reports whether v passes the store predicate.
func (s *Spec) Match(v any) bool { return s.match(v) }
