// Package xkcdbot provides a searchable local catalogue of xkcd comics.
// It incrementally scrapes comic metadata and transcripts, persists them
// to a local store, indexes them for full-text search and answers
// inline queries from a chat transport.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., bleve/, goquery/, sqlite/).
package xkcdbot
