package testutil

import "github.com/contestlog/qsocore/internal/qso"

// FixedContestIDGenerator returns the same contest id every time.
//
// This enables deterministic test execution and golden snapshot comparison.
// The same scenario with the same FixedContestIDGenerator produces byte-identical event logs.
//
// Unlike qso.UUIDv7Generator, which mints a fresh time-sortable id per
// call, this generator always returns the same id. That matches real
// usage too: a contest id is minted once per session and then reused
// by every Draft in that session.
//
// Thread-safety: FixedContestIDGenerator is stateless and safe for concurrent use.
type FixedContestIDGenerator struct {
	id qso.ContestID
}

// NewFixedContestIDGenerator creates a new fixed contest id generator.
//
// The id is typically set in the scenario YAML:
//
//	contest_id: "test-contest-00000000-0000-0000-0000-000000000001"
//
// If id is empty, Generate() returns "test-contest-default".
func NewFixedContestIDGenerator(id string) *FixedContestIDGenerator {
	if id == "" {
		id = "test-contest-default"
	}
	return &FixedContestIDGenerator{id: qso.ContestID(id)}
}

// Generate returns the fixed contest id.
//
// Implements qso.ContestIDGenerator.
func (g *FixedContestIDGenerator) Generate() qso.ContestID {
	return g.id
}
