// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store := s3.NewStore(client, "my-bucket", "mergetree/mytable/")
//
//	cat := catalog.NewStore(store)
//
// # Features
//
//   - Range reads for efficient partial fetches
//   - Multipart uploads for manifest blobs
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
