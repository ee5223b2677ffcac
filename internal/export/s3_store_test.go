package export

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBucket struct {
	existsErr []error
	exists    bool
	made      int
	objects   map[string][]byte
}

func (f *fakeBucket) BucketExists(ctx context.Context, _ string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if len(f.existsErr) > 0 {
		err := f.existsErr[0]
		f.existsErr = f.existsErr[1:]
		if err != nil {
			return false, err
		}
	}
	return f.exists, nil
}

func (f *fakeBucket) MakeBucket(_ context.Context, _ string, _ minio.MakeBucketOptions) error {
	f.made++
	f.exists = true
	return nil
}

func (f *fakeBucket) PutObject(_ context.Context, _, objectName string, reader io.Reader, _ int64, _ minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[objectName] = data
	return minio.UploadInfo{Key: objectName}, nil
}

func TestS3Store_PutCreatesBucketOnce(t *testing.T) {
	fake := &fakeBucket{}
	store := &S3Store{client: fake, bucketName: "codes", region: "us-east-1"}
	ctx := context.Background()

	loc, err := store.Put(ctx, "/code_1.png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "s3://codes/code_1.png", loc)

	_, err = store.Put(ctx, "code_2.png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, 1, fake.made)
	assert.Len(t, fake.objects, 2)
}

func TestS3Store_BucketCheckRetriesAfterFailure(t *testing.T) {
	fake := &fakeBucket{existsErr: []error{errors.New("connection refused")}}
	store := &S3Store{client: fake, bucketName: "codes", region: "us-east-1"}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.Put(cancelled, "code_1.png", []byte("png"))
	require.Error(t, err)

	_, err = store.Put(context.Background(), "code_1.png", []byte("png"))
	require.Error(t, err, "transient failure surfaces once")

	loc, err := store.Put(context.Background(), "code_1.png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "s3://codes/code_1.png", loc)
	assert.Equal(t, []byte("png"), fake.objects["code_1.png"])
}
