package storage

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jobscout/internal/config"
	"jobscout/internal/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGetter struct {
	objects map[string]string
	err     error
	input   *s3.GetObjectInput
}

func (f *fakeGetter) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, stderrors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: aws.Int64(int64(len(body))),
	}, nil
}

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		ref        string
		wantBucket string
		wantKey    string
		wantOK     bool
	}{
		{ref: "s3://resumes/2024/jane.pdf", wantBucket: "resumes", wantKey: "2024/jane.pdf", wantOK: true},
		{ref: "s3://resumes/", wantOK: false},
		{ref: "s3://resumes", wantOK: false},
		{ref: "s3:///key.pdf", wantOK: false},
		{ref: "/tmp/resume.pdf", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			bucket, key, ok := ParseS3URI(tt.ref)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestLoadObject(t *testing.T) {
	getter := &fakeGetter{objects: map[string]string{"resumes/2024/jane.pdf": "%PDF-1.4 ..."}}
	loader := NewLoaderWithClient(getter, 1024, nil)

	doc, err := loader.Load(context.Background(), "s3://resumes/2024/jane.pdf")
	require.NoError(t, err)
	assert.Equal(t, "jane.pdf", doc.Name)
	assert.Equal(t, "%PDF-1.4 ...", string(doc.Data))
	assert.Equal(t, "resumes", aws.ToString(getter.input.Bucket))
	assert.Equal(t, "2024/jane.pdf", aws.ToString(getter.input.Key))
}

func TestLoadObjectErrors(t *testing.T) {
	t.Run("get fails", func(t *testing.T) {
		loader := NewLoaderWithClient(&fakeGetter{err: stderrors.New("AccessDenied")}, 1024, nil)
		_, err := loader.Load(context.Background(), "s3://resumes/jane.pdf")
		appErr, ok := errors.As(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeStorage, appErr.Code)
		assert.Equal(t, "resumes", appErr.Context["bucket"])
	})

	t.Run("too large", func(t *testing.T) {
		getter := &fakeGetter{objects: map[string]string{"resumes/big.pdf": strings.Repeat("x", 50)}}
		loader := NewLoaderWithClient(getter, 10, nil)
		_, err := loader.Load(context.Background(), "s3://resumes/big.pdf")
		appErr, ok := errors.As(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeFileTooLarge, appErr.Code)
	})

	t.Run("malformed reference", func(t *testing.T) {
		loader := NewLoaderWithClient(&fakeGetter{}, 10, nil)
		_, err := loader.Load(context.Background(), "s3://only-bucket")
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	})
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.pdf")
	require.NoError(t, os.WriteFile(path, []byte("resume bytes"), 0o600))

	loader := NewLoader(config.S3Config{Region: "auto"}, 1024, nil)
	doc, err := loader.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Name)
	assert.Equal(t, "resume bytes", string(doc.Data))

	_, err = loader.Load(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeFileNotFound, appErr.Code)
}
