// Package ids generates unique request identifiers.
package ids

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// New returns a lexicographically sortable unique id. ULIDs embed a
// millisecond timestamp so ids sort by creation time in logs.
func New() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
