package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// AzureFetcher downloads evidence stored in Azure Blob Storage
type AzureFetcher struct {
	client   *azblob.Client
	maxBytes int64
}

// NewAzureFetcher authenticates with a shared account key
func NewAzureFetcher(accountName, accountKey string, maxBytes int64) (*AzureFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure client: %w", err)
	}

	return &AzureFetcher{client: client, maxBytes: maxBytes}, nil
}

func (s *AzureFetcher) Fetch(ctx context.Context, blobURL string) ([]byte, error) {
	container, blob, err := ParseBlobURL(blobURL)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	return readLimited(resp.Body, s.maxBytes)
}

// IsBlobNotFound reports whether err means the container or blob is missing
func IsBlobNotFound(err error) bool {
	return bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound)
}

// ParseBlobURL splits a blob URL into container and blob name. Both the
// path form (/container/dir/name.jpg) and the query form
// (/container?blob=dir/name.jpg) are accepted.
func ParseBlobURL(blobURL string) (container, blob string, err error) {
	parsedURL, err := url.Parse(blobURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid blob URL: %w", err)
	}

	path := strings.TrimPrefix(parsedURL.Path, "/")
	if name := parsedURL.Query().Get("blob"); name != "" {
		container, blob = path, name
	} else {
		container, blob, _ = strings.Cut(path, "/")
	}

	if container == "" || blob == "" {
		return "", "", fmt.Errorf("blob URL %q must name a container and a blob", blobURL)
	}
	return container, blob, nil
}
