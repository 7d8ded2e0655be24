package testutil

// FixedSessionGenerator returns the same session id every time.
//
// A fixed id keeps log output and golden snapshots byte-identical across
// runs.
//
// Thread-safety: FixedSessionGenerator is stateless and safe for concurrent use.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates a fixed session id generator.
// If id is empty, Generate() returns "test-session-default".
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = "test-session-default"
	}
	return &FixedSessionGenerator{id: id}
}

// Generate returns the fixed session id.
//
// Implements tracker.SessionIDGenerator.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
