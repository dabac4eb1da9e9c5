// Package normalisers provides implementations of the ArchiveDecoder
// interface for external chat-export formats. Each normaliser knows how
// to turn one interchange layout into a raw archive.
package normalisers
