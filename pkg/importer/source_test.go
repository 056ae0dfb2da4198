package importer

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.GetObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestOpener_S3(t *testing.T) {
	mockClient := new(MockS3Client)
	opener := &Opener{S3: mockClient}
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
			return *input.Bucket == "loads" && *input.Key == "2024/vertices.csv"
		})).Return(&s3.GetObjectOutput{
			Body: io.NopCloser(strings.NewReader("id\na\n")),
		}, nil).Once()

		rc, err := opener.Open(ctx, "s3://loads/2024/vertices.csv")
		require.NoError(t, err)
		defer rc.Close()

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "id\na\n", string(data))
	})

	t.Run("NoSuchKey", func(t *testing.T) {
		mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
			return *input.Key == "missing.csv"
		})).Return(nil, &types.NoSuchKey{}).Once()

		_, err := opener.Open(ctx, "s3://loads/missing.csv")
		assert.ErrorIs(t, err, ErrSourceNotFound)
	})

	t.Run("OtherError", func(t *testing.T) {
		boom := errors.New("throttled")
		mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
			return *input.Key == "slow.csv"
		})).Return(nil, boom).Once()

		_, err := opener.Open(ctx, "s3://loads/slow.csv")
		assert.ErrorIs(t, err, boom)
	})

	mockClient.AssertExpectations(t)
}

func TestOpener_InvalidS3URI(t *testing.T) {
	opener := &Opener{S3: new(MockS3Client)}

	for _, uri := range []string{"s3://", "s3://bucket", "s3://bucket/", "s3:///key"} {
		_, err := opener.Open(context.Background(), uri)
		assert.Error(t, err, uri)
	}
}

func TestOpener_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edges.csv")
	require.NoError(t, os.WriteFile(path, []byte("from,to,label\n"), 0o644))

	rc, err := OpenSource(context.Background(), path)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "from,to,label\n", string(data))

	_, err = OpenSource(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

func TestOpener_Stdin(t *testing.T) {
	rc, err := OpenSource(context.Background(), "-")
	require.NoError(t, err)
	assert.NoError(t, rc.Close())
}
