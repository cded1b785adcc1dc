// Package source reads markdown documents from a corpus directory.
//
// A Loader enumerates candidate files under a root directory in lexical order,
// skipping private entries (names starting with the private prefix, "_" by
// default) and files with unrecognized extensions. Each file is loaded into a
// core.Document: front matter is parsed, the slug is resolved and the file's
// modification time is recorded in epoch milliseconds.
//
// PlainText converts a markdown body to prose for chunking.
package source
