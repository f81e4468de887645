package blobs

import (
	"net/url"
	"strings"
)

// Locator maps objects to deterministic public URLs of the form
// <base>/<bucket name>/<object name>.
type Locator struct {
	BaseURL string
	Names   map[Bucket]string
}

// NewLocator builds a locator for the given public base and physical bucket
// names.
func NewLocator(baseURL, stagingName, productionName string) Locator {
	return Locator{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Names: map[Bucket]string{
			Staging:    stagingName,
			Production: productionName,
		},
	}
}

func (l Locator) name(bucket Bucket) string {
	if name := l.Names[bucket]; name != "" {
		return name
	}
	return string(bucket)
}

// Prefix returns the URL prefix shared by every object of bucket.
func (l Locator) Prefix(bucket Bucket) string {
	return l.BaseURL + "/" + l.name(bucket) + "/"
}

// URL returns the public URL of an object.
func (l Locator) URL(bucket Bucket, name string) string {
	return l.Prefix(bucket) + url.PathEscape(name)
}

// Parse recovers the bucket and object name of a public URL by prefix.
func (l Locator) Parse(raw string) (Bucket, string, bool) {
	for _, bucket := range []Bucket{Staging, Production} {
		prefix := l.Prefix(bucket)
		if !strings.HasPrefix(raw, prefix) {
			continue
		}
		escaped := strings.TrimPrefix(raw, prefix)
		name, err := url.PathUnescape(escaped)
		if err != nil || name == "" || strings.Contains(name, "/") {
			return "", "", false
		}
		return bucket, name, true
	}
	return "", "", false
}
