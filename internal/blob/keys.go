package blob

import (
	"net/url"
	"strings"
)

// KeyFromURL maps a stored media reference back to the blob key it addresses.
// References written by the fs driver look like http://local.blob/<key>; other
// drivers may hand out presigned URLs whose path is the object key. A
// reference that does not parse as an absolute URL is treated as a raw key.
// Query strings and fragments (presign signatures) are discarded.
func KeyFromURL(ref string) string {
	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimPrefix(ref, "/")
	}
	return strings.TrimPrefix(u.Path, "/")
}
