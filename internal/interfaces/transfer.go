package interfaces

import "context"

// FileTransfer moves vendor documents between the remote automation
// environment and local disk. Implementations surface NotFoundError for
// missing remote paths and TransferError for interrupted transfers.
type FileTransfer interface {
	// Download fetches a remote file and returns its local path.
	Download(ctx context.Context, remotePath string) (string, error)

	// Upload stores a local file durably and returns its public URL.
	Upload(ctx context.Context, localPath string) (string, error)
}
