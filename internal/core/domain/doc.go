// Package domain defines the core business entities for chatlens.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Message: a single chat message in the archive
//   - Member: a chat participant with current and historical names
//   - Session: a maximal run of messages with no large time gap
//   - MentionStats: the directed @-mention matrix and derived relations
//   - TemporalStats: decayed temporal-adjacency scores per member pair
//   - RelationshipGraph: the combined, ranked closeness graph
//   - ContextBlock: a merged window of messages around filter hits
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
