package sync

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakePutter struct {
	in   *s3.PutObjectInput
	body string
	err  error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	data, _ := io.ReadAll(in.Body)
	f.body = string(data)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Destination_Write(t *testing.T) {
	fp := &fakePutter{}
	d := &S3Destination{client: fp, bucket: "backups", key: "taskdeps/backup.jsonl"}

	payload := `{"type":"header"}` + "\n"
	if err := d.Write(context.Background(), []byte(payload)); err != nil {
		t.Fatal(err)
	}
	if aws.ToString(fp.in.Bucket) != "backups" || aws.ToString(fp.in.Key) != "taskdeps/backup.jsonl" {
		t.Errorf("put target = %s/%s", aws.ToString(fp.in.Bucket), aws.ToString(fp.in.Key))
	}
	if aws.ToString(fp.in.ContentType) != ndjsonContentType {
		t.Errorf("content type = %s", aws.ToString(fp.in.ContentType))
	}
	if aws.ToInt64(fp.in.ContentLength) != int64(len(payload)) || fp.body != payload {
		t.Errorf("body = %q (len %d)", fp.body, aws.ToInt64(fp.in.ContentLength))
	}
}

func TestS3Destination_WriteError(t *testing.T) {
	d := &S3Destination{client: &fakePutter{err: errors.New("AccessDenied")}, bucket: "b", key: "k"}
	err := d.Write(context.Background(), []byte("x"))
	if err == nil || !strings.Contains(err.Error(), "s3://b/k") || !strings.Contains(err.Error(), "AccessDenied") {
		t.Fatalf("err = %v", err)
	}
}
