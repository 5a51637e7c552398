package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/myvaultapp/myvault/internal/common"
)

// S3 object user-metadata keys carrying the vault naming model. S3 has no
// folder hierarchy, so name and parent live in metadata and ids are
// store-assigned UUID keys.
const (
	s3MetaName   = "vault-name"
	s3MetaParent = "vault-parent"
	s3MetaMime   = "vault-mime"
)

// S3Store keeps vault objects in an S3-compatible bucket.
type S3Store struct {
	client *s3.Client
	bucket string
}

// S3Params configures the S3 adapter. Endpoint is optional; when set, the
// client uses path-style addressing (MinIO and friends).
type S3Params struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

func NewS3Store(ctx context.Context, p S3Params) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(p.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(p.AccessKeyID, p.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if p.Endpoint != "" {
			o.BaseEndpoint = aws.String(p.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client, bucket: p.Bucket}, nil
}

// NewS3StoreWithClient is the test seam.
func NewS3StoreWithClient(client *s3.Client, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

func (s *S3Store) List(ctx context.Context, q Query) ([]ObjectInfo, error) {
	var infos []ObjectInfo

	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: listing bucket: %v", common.ErrRemoteUnavailable, err)
		}
		for _, obj := range page.Contents {
			info, err := s.GetMeta(ctx, aws.ToString(obj.Key))
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					continue
				}
				return nil, err
			}
			if matches(q, *info) {
				infos = append(infos, *info)
			}
		}
	}

	return infos, nil
}

func matches(q Query, info ObjectInfo) bool {
	if info.Trashed {
		return false
	}
	if len(q.Names) > 0 {
		found := false
		for _, n := range q.Names {
			if info.Name == n {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.ParentID != "" && q.ParentID != parentOf(info) {
		return false
	}
	if q.MimeType != "" && info.MimeType != q.MimeType {
		return false
	}
	return true
}

// parentOf recovers the parent id encoded in the object key prefix.
func parentOf(info ObjectInfo) string {
	if i := strings.LastIndex(info.ID, "/"); i >= 0 {
		return info.ID[:i]
	}
	return ""
}

func (s *S3Store) Create(ctx context.Context, name, parentID, mimeType string) (string, error) {
	id := uuid.NewString()
	if parentID != "" {
		id = parentID + "/" + id
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(id),
		Body:        bytes.NewReader(nil),
		ContentType: aws.String(mimeType),
		Metadata: map[string]string{
			s3MetaName:   name,
			s3MetaParent: parentID,
			s3MetaMime:   mimeType,
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: creating object: %v", common.ErrRemoteUnavailable, err)
	}
	return id, nil
}

func (s *S3Store) WriteContent(ctx context.Context, id string, data []byte, contentType string) error {
	// PutObject replaces user metadata wholesale, so carry it over.
	info, err := s.GetMeta(ctx, id)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(id),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			s3MetaName:   info.Name,
			s3MetaParent: parentOf(*info),
			s3MetaMime:   info.MimeType,
		},
	})
	if err != nil {
		return fmt.Errorf("%w: writing object content: %v", common.ErrRemoteUnavailable, err)
	}
	return nil
}

func (s *S3Store) ReadContent(ctx context.Context, id string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: object %s", common.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: reading object: %v", common.ErrRemoteUnavailable, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading object body: %v", common.ErrRemoteUnavailable, err)
	}
	return data, nil
}

func (s *S3Store) Delete(ctx context.Context, id string) error {
	// DeleteObject succeeds for absent keys, which is exactly the
	// idempotency the pipelines rely on.
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		return fmt.Errorf("%w: deleting object: %v", common.ErrRemoteUnavailable, err)
	}
	return nil
}

func (s *S3Store) GetMeta(ctx context.Context, id string) (*ObjectInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: object %s", common.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: reading object metadata: %v", common.ErrRemoteUnavailable, err)
	}

	mime := out.Metadata[s3MetaMime]
	if mime == "" {
		mime = aws.ToString(out.ContentType)
	}

	return &ObjectInfo{
		ID:       id,
		Name:     out.Metadata[s3MetaName],
		MimeType: mime,
		Size:     aws.ToInt64(out.ContentLength),
	}, nil
}
