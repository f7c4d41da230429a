package adapters

import (
	"context"

	"portal_ventas_backend/internal/adapters/storage"
	quotesvc "portal_ventas_backend/internal/quotes/service"
)

// QuoteDocumentArchiver stores uploaded quote documents content-addressed in
// object storage. It implements quotes/service.Archiver.
type QuoteDocumentArchiver struct {
	store  storage.ObjectStore
	bucket string
}

// NewQuoteDocumentArchiver creates an archiver writing into the given bucket.
func NewQuoteDocumentArchiver(store storage.ObjectStore, bucket string) *QuoteDocumentArchiver {
	return &QuoteDocumentArchiver{store: store, bucket: bucket}
}

// ArchiveDocument stores the document under <vendor>/<hash>. The key is
// derived from the content hash, so re-archiving the same bytes overwrites
// an identical object.
func (a *QuoteDocumentArchiver) ArchiveDocument(ctx context.Context, vendorID, contentHash string, data []byte, contentType string) error {
	key := vendorID + "/" + contentHash
	return a.store.Put(ctx, a.bucket, key, storage.SafeContentType(contentType), data)
}

// DocumentURL generates a presigned download URL for an archived document.
func (a *QuoteDocumentArchiver) DocumentURL(ctx context.Context, vendorID, contentHash string) (string, error) {
	presigned, err := a.store.PresignedDownloadURL(ctx, a.bucket, vendorID+"/"+contentHash)
	if err != nil {
		return "", err
	}
	return presigned.URL, nil
}

// Compile-time checks against the quotes/service seams.
var (
	_ quotesvc.Archiver       = (*QuoteDocumentArchiver)(nil)
	_ quotesvc.DocumentLinker = (*QuoteDocumentArchiver)(nil)
)
