package cacheable

// Hooks are lightweight callbacks for high-signal Cache events.
// Implementations MUST be cheap and non-blocking; they run on hot paths.
type Hooks interface {
	// Hit and Miss are reported by Get.
	Hit(namespace string)
	Miss(namespace string)

	// An entry was deleted on read.
	// reason ∈ {"corrupt", "gen_mismatch", "value_decode"}
	SelfHeal(storageKey, reason string)

	// Provider returned ok=false on Set (backpressure/admission).
	ProviderSetRejected(storageKey string)

	// GenStore errors. count is the number of keys involved.
	GenSnapshotError(count int, err error)
	GenBumpError(storageKey string, err error)

	// All entries of a namespace were flushed.
	Flushed(namespace string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) Hit(string)                  {}
func (NopHooks) Miss(string)                 {}
func (NopHooks) SelfHeal(string, string)     {}
func (NopHooks) ProviderSetRejected(string)  {}
func (NopHooks) GenSnapshotError(int, error) {}
func (NopHooks) GenBumpError(string, error)  {}
func (NopHooks) Flushed(string)              {}
