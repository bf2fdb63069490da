package sync

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeS3 struct {
	in   *s3.PutObjectInput
	body string
	err  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	data, _ := io.ReadAll(in.Body)
	f.body = string(data)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Destination_Write(t *testing.T) {
	api := &fakeS3{}
	d := &S3Destination{api: api, bucket: "edc", key: "prod/configuration.jsonl"}

	if err := d.Write(context.Background(), []byte("{}\n")); err != nil {
		t.Fatal(err)
	}
	if aws.ToString(api.in.Bucket) != "edc" || aws.ToString(api.in.Key) != "prod/configuration.jsonl" {
		t.Errorf("wrote to %s/%s", aws.ToString(api.in.Bucket), aws.ToString(api.in.Key))
	}
	if api.in.ChecksumAlgorithm != types.ChecksumAlgorithmSha256 {
		t.Errorf("checksum algorithm = %q", api.in.ChecksumAlgorithm)
	}
	if aws.ToString(api.in.ContentType) != "application/x-ndjson" {
		t.Errorf("content type = %q", aws.ToString(api.in.ContentType))
	}
	if api.body != "{}\n" {
		t.Errorf("body = %q", api.body)
	}
	if d.Name() != "s3://edc/prod/configuration.jsonl" {
		t.Errorf("Name() = %q", d.Name())
	}
}

func TestS3Destination_WriteError(t *testing.T) {
	d := &S3Destination{api: &fakeS3{err: errors.New("access denied")}, bucket: "edc", key: "k"}
	err := d.Write(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "s3://edc/k") {
		t.Fatalf("got %v", err)
	}
}

func TestNewS3Destination_RequiresBucket(t *testing.T) {
	if _, err := NewS3Destination(context.Background(), "", "k", "us-east-1", ""); err == nil {
		t.Fatal("expected an error without a bucket")
	}
}
