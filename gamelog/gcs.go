package gamelog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/googleapi"
)

// objectWriter opens a writer for a new object. The write fails at Close
// when the object already exists.
type objectWriter func(ctx context.Context, name string) io.WriteCloser

// GCSRepository persists logs as objects in a Cloud Storage bucket.
type GCSRepository struct {
	bucket    string
	prefix    string
	client    *storage.Client
	newWriter objectWriter
}

// NewGCSRepository creates a repository writing to gs://{bucket}/{prefix}.
func NewGCSRepository(ctx context.Context, bucket, prefix string) (*GCSRepository, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Cloud Storage client")
	}

	r := &GCSRepository{
		bucket: bucket,
		prefix: prefix,
		client: client,
	}
	r.newWriter = func(ctx context.Context, name string) io.WriteCloser {
		obj := client.Bucket(bucket).Object(name).If(storage.Conditions{DoesNotExist: true})
		w := obj.NewWriter(ctx)
		w.ContentType = "application/json"
		return w
	}
	return r, nil
}

// Save writes the log to {prefix}/{ObjectName}.
func (r *GCSRepository) Save(ctx context.Context, log *GameEvaluationLog) error {
	data, err := json.Marshal(log)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal game log", goerr.V("id", log.ID))
	}

	for _, name := range []string{ObjectName(log), fallbackName(log)} {
		objectName := path.Join(r.prefix, name)
		err := r.write(ctx, objectName, data)
		if isPreconditionFailed(err) {
			continue
		}
		if err != nil {
			return goerr.Wrap(err, "failed to write game log object",
				goerr.Value("bucket", r.bucket),
				goerr.Value("object", objectName),
			)
		}
		return nil
	}

	return goerr.New("game log object already exists", goerr.V("bucket", r.bucket), goerr.V("id", log.ID))
}

func (r *GCSRepository) write(ctx context.Context, objectName string, data []byte) error {
	w := r.newWriter(ctx, objectName)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// Close releases the storage client.
func (r *GCSRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

func isPreconditionFailed(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed
}
