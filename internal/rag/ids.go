package rag

import (
	"fmt"

	"github.com/google/uuid"
)

var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("coursematch/chunk"))

// ChunkID returns a stable UUID for chunk n of the document identified by
// key, so a rebuild of the same catalog produces the same point ids.
func ChunkID(key string, n int) string {
	return uuid.NewSHA1(chunkNamespace, fmt.Appendf(nil, "%s#%d", key, n)).String()
}
