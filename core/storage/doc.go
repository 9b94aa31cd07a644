// Package storage archives fetched registry rosters in MinIO or any S3 compatible store.
//
// Archiving is best-effort evidence: it lets administrators see exactly which roster a
// verification decision was made against. The Client interface is narrow so tests can use
// the testify mock in core/storage/mocks.
//
//	client, err := storage.NewClient(cfg.Storage)
//	archive := storage.NewArchive(client, cfg.Storage.Bucket)
//	key, err := archive.Put(ctx, tournamentID, "A大学", jobID, records)
package storage
