package gamelog

type ObjectWriter = objectWriter

var FallbackName = fallbackName

// NewGCSRepositoryWithWriter creates a repository without a storage client for testing
func NewGCSRepositoryWithWriter(bucket, prefix string, w objectWriter) *GCSRepository {
	return &GCSRepository{
		bucket:    bucket,
		prefix:    prefix,
		newWriter: w,
	}
}
