// Package s3store provides the S3 object-store driver for the resource
// layer. It registers itself under the "s3" driver name; callers that want
// remote-backed stores blank-import it.
package s3store

import (
	"context"
	"errors"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/platform-cfm/cfmstore/pkg/creds"
	"github.com/platform-cfm/cfmstore/pkg/resource"
)

const defaultRegion = "us-east-1"

// Options holds driver settings that are not part of the credential
// contract. The zero value is correct for real S3.
type Options struct {
	// Region defaults to $AWS_REGION, then us-east-1. Service bindings
	// carry no region field.
	Region string
	// Endpoint overrides the S3 endpoint, for S3-compatible stores and
	// integration tests.
	Endpoint string
	// UsePathStyle forces path-style addressing, required by most
	// S3-compatible endpoints.
	UsePathStyle bool
}

// Store implements resource.ObjectStore on top of the AWS SDK.
type Store struct {
	client     *s3.Client
	bucket     string
	uploader   *manager.Uploader
	downloader *manager.Downloader
}

func init() {
	resource.RegisterDriver("s3", func(ctx context.Context, c creds.Credentials) (resource.ObjectStore, error) {
		return New(ctx, c)
	})
}

// New creates a connected S3 store from resolved credentials.
func New(ctx context.Context, c creds.Credentials, optFns ...func(*Options)) (*Store, error) {
	opts := Options{Region: os.Getenv("AWS_REGION")}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Region == "" {
		opts.Region = defaultRegion
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				c.AccessKeyID,
				c.SecretAccessKey,
				"",
			),
		),
	)
	if err != nil {
		return nil, resource.WrapError(c.Bucket, "init", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	return &Store{
		client:     client,
		bucket:     c.Bucket,
		uploader:   manager.NewUploader(client),
		downloader: manager.NewDownloader(client),
	}, nil
}

// Bucket returns the bound bucket name.
func (s *Store) Bucket() string { return s.bucket }

// Head checks key for existence, mapping the store's not-found response to
// resource.ErrNotFound and anything else to resource.ErrRemote.
func (s *Store) Head(ctx context.Context, key string) error {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return resource.ErrNotFound
		}
		return errors.Join(resource.ErrRemote, err)
	}
	return nil
}

// Download fetches key into localPath.
func (s *Store) Download(ctx context.Context, key, localPath string) error {
	file, err := os.Create(localPath)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = s.downloader.Download(ctx, file, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return resource.ErrNotFound
		}
		return errors.Join(resource.ErrRemote, err)
	}
	return nil
}

// Upload stores localPath under key, requesting SSE-KMS when an
// encryption key id is configured.
func (s *Store) Upload(ctx context.Context, localPath, key, encryptionKeyID string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer file.Close()

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   file,
	}
	if encryptionKeyID != "" {
		input.ServerSideEncryption = types.ServerSideEncryptionAwsKms
		input.SSEKMSKeyId = aws.String(encryptionKeyID)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return errors.Join(resource.ErrRemote, err)
	}
	return nil
}

// List returns every key with the given prefix, paging transparently.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.Join(resource.ErrRemote, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// CountPage returns the match count of the first listing page only.
func (s *Store) CountPage(ctx context.Context, prefix string) (int, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	page, err := s.client.ListObjectsV2(ctx, input)
	if err != nil {
		return 0, errors.Join(resource.ErrRemote, err)
	}
	return len(page.Contents), nil
}

// Delete removes key from the bucket.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errors.Join(resource.ErrRemote, err)
	}
	return nil
}

// Close is a no-op for S3.
func (s *Store) Close() error {
	return nil
}
