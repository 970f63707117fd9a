// Package storage provides the object-store gateway used for raw stock
// artifacts.
//
// Two backends implement the Gateway interface:
//   - MinIO (any S3-compatible endpoint)
//   - Google Cloud Storage
//
// The backend is selected once at startup; nothing above this package
// knows which one is active. A single-key miss surfaces as ErrNotFound,
// connectivity problems as ErrUnavailable.
package storage
