// Package indexing provides the incremental indexing pipeline.
//
// A build walks the corpus in enumeration order and, per document:
//   - decides with the ChangeDetector whether prior entries can be reused
//   - converts changed documents to plain text and splits them with the Chunker
//   - queues the fragments on the Batcher, which embeds them in fixed-size
//     batches on a bounded worker pool
//
// The Assembler then merges carried and fresh entries back into enumeration
// order. Provider failures are fatal: Run returns an error and no entries, so
// callers never persist a partial index. Documents with malformed front matter
// or a duplicate slug are skipped with a warning.
package indexing
