// Package tasks runs the related-artist discovery pipeline with real-time progress reporting.
//
// # Stages
//
// [Engine.Run] takes one seed artist and an access token:
//
//  1. Scrape: a [RelationSource] returns related artist names in document order.
//     A failure here aborts the run.
//  2. Resolve: [Resolver] searches every name concurrently. Names that fail or match nothing are dropped.
//  3. Collect: [Aggregator] fetches top tracks for every artist concurrently, keeping at most three per artist.
//  4. Publish: [Publisher] creates the playlist and inserts tracks in batches of five, one batch at a time.
//
// Both fan-out stages write results by input position, so output order follows scrape order
// regardless of which call finishes first.
//
// # Insertion
//
// [Engine.Run] returns once the playlist exists. Batches keep inserting on a detached context
// bounded by the pipeline timeout, and the outcome arrives as an [InsertionSummary] on [Publication.Done].
// A failed batch is logged and the next one proceeds.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct carries phase, step counters, messages, and optional data.
// Updates use select with default to prevent blocking.
//
// # Artist Caching
//
// The optional [ArtistCacher] interface lets resolution reuse name to ID pairs from earlier runs.
// Cache errors are logged and ignored.
package tasks
