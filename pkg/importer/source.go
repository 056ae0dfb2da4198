package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrSourceNotFound is returned when an input does not exist
var ErrSourceNotFound = errors.New("source not found")

// S3API is the subset of the S3 client used to read inputs
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Opener opens input URIs. S3 is created from the default AWS configuration
// on first use when nil.
type Opener struct {
	S3 S3API
}

// OpenSource opens uri with a default Opener
func OpenSource(ctx context.Context, uri string) (io.ReadCloser, error) {
	return (&Opener{}).Open(ctx, uri)
}

// Open returns a reader for uri: "-" is standard input, "s3://bucket/key" an
// S3 object, and anything else a local path.
func (o *Opener) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	switch {
	case uri == "-":
		return io.NopCloser(os.Stdin), nil
	case strings.HasPrefix(uri, "s3://"):
		return o.openS3(ctx, uri)
	default:
		f, err := os.Open(uri)
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, uri)
		}
		return f, err
	}
}

func (o *Opener) openS3(ctx context.Context, uri string) (io.ReadCloser, error) {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return nil, err
	}

	if o.S3 == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		o.S3 = s3.NewFromConfig(cfg)
	}

	out, err := o.S3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, uri)
		}
		var nb *types.NoSuchBucket
		if errors.As(err, &nb) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, uri)
		}
		return nil, fmt.Errorf("get %s: %w", uri, err)
	}
	return out.Body, nil
}

func parseS3URI(uri string) (bucket, key string, err error) {
	bucket, key, _ = strings.Cut(strings.TrimPrefix(uri, "s3://"), "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid S3 URI %q: want s3://bucket/key", uri)
	}
	return bucket, key, nil
}
