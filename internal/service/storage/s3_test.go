package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeS3 struct {
	objects map[string][]byte
	meta    map[string]map[string]string
	lists   []*s3.ListObjectsV2Input
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, meta: map[string]map[string]string{}}
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.lists = append(f.lists, in)
	prefix := aws.ToString(in.Prefix)
	delimiter := aws.ToString(in.Delimiter)

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	seen := map[string]bool{}
	for key, body := range f.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := strings.TrimPrefix(key, prefix)
		if delimiter != "" {
			if i := strings.Index(rest, delimiter); i >= 0 {
				p := prefix + rest[:i+1]
				if !seen[p] {
					seen[p] = true
					out.CommonPrefixes = append(out.CommonPrefixes, types.CommonPrefix{Prefix: aws.String(p)})
				}
				continue
			}
		}
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key), Size: aws.Int64(int64(len(body)))})
	}
	return out, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	f.meta[aws.ToString(in.Key)] = in.Metadata
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

type fakePresigner struct {
	expires time.Duration
}

func (f *fakePresigner) PresignGetObject(_ context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	opts := s3.PresignOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	f.expires = opts.Expires
	return &v4.PresignedHTTPRequest{
		URL:    "https://bucket.example/" + aws.ToString(in.Key) + "?X-Amz-Signature=abc",
		Method: http.MethodGet,
	}, nil
}

func TestFoldersUsesDelimiter(t *testing.T) {
	api := newFakeS3()
	api.objects["balances/CNPJ: 33000167000101/2024/Anual.pdf"] = []byte("a")
	api.objects["balances/CNPJ: 33000167000101/2023/Q1.pdf"] = []byte("b")
	api.objects["balances/empresa XPTO/2024/Anual.pdf"] = []byte("c")
	bucket := newBucket(api, &fakePresigner{}, "reports", 0)

	companies, err := bucket.Folders(context.Background(), "balances/")
	if err != nil {
		t.Fatalf("Folders returned error: %v", err)
	}
	if len(companies) != 2 || companies[0] != "CNPJ: 33000167000101" || companies[1] != "empresa XPTO" {
		t.Fatalf("unexpected companies %v", companies)
	}

	years, err := bucket.Folders(context.Background(), "balances/CNPJ: 33000167000101/")
	if err != nil {
		t.Fatalf("Folders returned error: %v", err)
	}
	if len(years) != 2 || years[0] != "2023" {
		t.Fatalf("unexpected years %v", years)
	}
	if aws.ToString(api.lists[0].Delimiter) != "/" {
		t.Fatalf("expected delimiter /, got %q", aws.ToString(api.lists[0].Delimiter))
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	api := newFakeS3()
	bucket := newBucket(api, &fakePresigner{}, "reports", 0)

	meta := map[string]string{"period": "Anual"}
	if err := bucket.Put(context.Background(), "uploads/1-doc.pdf", []byte("%PDF"), "", meta); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	data, err := bucket.Get(context.Background(), "uploads/1-doc.pdf", 2)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if string(data) != "%P" {
		t.Fatalf("expected limited read, got %q", data)
	}
	if api.meta["uploads/1-doc.pdf"]["period"] != "Anual" {
		t.Fatalf("expected metadata to be stored")
	}

	if _, err := bucket.Get(context.Background(), "missing.pdf", 0); err == nil {
		t.Fatal("expected error for missing object")
	}
	if err := bucket.Put(context.Background(), " ", nil, "", nil); !errors.Is(err, ErrEmptyKey) {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
}

func TestSignedURLUsesTTL(t *testing.T) {
	presigner := &fakePresigner{}
	bucket := newBucket(newFakeS3(), presigner, "reports", 3600*time.Second)

	url, err := bucket.SignedURL(context.Background(), "balances/x/2024/Anual.pdf")
	if err != nil {
		t.Fatalf("SignedURL returned error: %v", err)
	}
	if !strings.Contains(url, "X-Amz-Signature") {
		t.Fatalf("unexpected url %s", url)
	}
	if presigner.expires != time.Hour {
		t.Fatalf("expected 1h expiry, got %s", presigner.expires)
	}
}
