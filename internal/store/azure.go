package store

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// azureConnectionInfo is the parsed form of an Azure Storage connection
// string, ported from the account/key/endpoint fields the original
// implementation extracts before handing them to the SDK builder.
type azureConnectionInfo struct {
	Account  string
	Key      string
	Endpoint string
}

// parseAzureConnectionString extracts AccountName, AccountKey, and a usable
// blob endpoint from a semicolon-delimited Azure Storage connection string.
// BlobEndpoint wins when present; otherwise the endpoint is derived from
// DefaultEndpointsProtocol + AccountName + EndpointSuffix.
func parseAzureConnectionString(connectionString string) (azureConnectionInfo, error) {
	values := make(map[string]string)
	for _, segment := range strings.Split(connectionString, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		key, value, ok := strings.Cut(segment, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		values[key] = value
	}

	account := values["accountname"]
	if account == "" {
		return azureConnectionInfo{}, fmt.Errorf("azure connection string: missing AccountName")
	}
	key := values["accountkey"]
	if key == "" {
		return azureConnectionInfo{}, fmt.Errorf("azure connection string: missing AccountKey")
	}

	endpoint := values["blobendpoint"]
	if endpoint == "" {
		protocol := strings.ToLower(values["defaultendpointsprotocol"])
		if protocol == "" {
			protocol = "https"
		}
		suffix := values["endpointsuffix"]
		if suffix != "" {
			endpoint = fmt.Sprintf("%s://%s.blob.%s", protocol, account, suffix)
		}
	}

	return azureConnectionInfo{Account: account, Key: key, Endpoint: endpoint}, nil
}

// AzureConfig describes one Azure Blob store entry from config.
type AzureConfig struct {
	ID               string
	Container        string
	ConnectionString string
}

// azureStore adapts Azure Blob Storage to Store.
type azureStore struct {
	id        string
	client    *azblob.Client
	container string
}

// NewAzure parses cfg.ConnectionString and builds an Azure Blob adapter.
func NewAzure(cfg AzureConfig) (Store, error) {
	if cfg.Container == "" {
		return nil, fmt.Errorf("store %q: azure container is required", cfg.ID)
	}

	info, err := parseAzureConnectionString(cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("store %q: %w", cfg.ID, err)
	}

	endpoint := info.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.blob.core.windows.net", info.Account)
	}

	cred, err := azblob.NewSharedKeyCredential(info.Account, info.Key)
	if err != nil {
		return nil, fmt.Errorf("store %q: build azure credential: %w", cfg.ID, err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(endpoint, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("store %q: build azure client: %w", cfg.ID, err)
	}

	return &azureStore{id: cfg.ID, client: client, container: cfg.Container}, nil
}

func (a *azureStore) Get(ctx context.Context, path string) (Result, error) {
	resp, err := a.client.DownloadStream(ctx, a.container, path, nil)
	if err != nil {
		return Result{}, a.classify(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, a.classify(err)
	}

	contentType := ""
	if resp.ContentType != nil {
		contentType = *resp.ContentType
	}
	return Result{Bytes: data, ContentType: contentType}, nil
}

func (a *azureStore) Head(ctx context.Context, path string) (Metadata, error) {
	blobClient := a.client.ServiceClient().NewContainerClient(a.container).NewBlobClient(path)
	props, err := blobClient.GetProperties(ctx, nil)
	if err != nil {
		return Metadata{}, a.classify(err)
	}

	var size uint64
	if props.ContentLength != nil {
		size = uint64(*props.ContentLength)
	}
	contentType := ""
	if props.ContentType != nil {
		contentType = *props.ContentType
	}
	return Metadata{Size: size, ContentType: contentType}, nil
}

func (a *azureStore) Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) error {
	var opts *azblob.UploadStreamOptions
	if contentType != "" {
		opts = &azblob.UploadStreamOptions{HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType}}
	}
	_, err := a.client.UploadStream(ctx, a.container, path, r, opts)
	if err != nil {
		return a.classify(err)
	}
	return nil
}

func (a *azureStore) classify(err error) error {
	if err == nil {
		return nil
	}
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return ErrNotFound
	}
	return &UpstreamError{StoreID: a.id, Cause: err}
}
