package encode

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// ArtifactStore uploads stored outputs to remote blob storage
type ArtifactStore interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
}

type azureStore struct {
	client    *azblob.Client
	account   string
	container string
}

// NewAzureArtifactStore creates a blob-backed artifact store
func NewAzureArtifactStore(accountName, accountKey, container string) (ArtifactStore, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return &azureStore{client: client, account: accountName, container: container}, nil
}

func (s *azureStore) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if _, err := s.client.UploadBuffer(ctx, s.container, name, data, nil); err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	return fmt.Sprintf("https://%s.blob.core.windows.net/%s/%s", s.account, s.container, name), nil
}
