// Package sheets defines the ports the mirror worker writes through.
package sheets

import (
	"context"

	"contas/internal/core"
)

// BucketMirror replaces one month's worth of rows on the mirror with the
// given records. The export is a full rewrite of the bucket, so the mirror
// converges no matter how many change messages were lost or reordered.
type BucketMirror interface {
	MirrorBucket(ctx context.Context, key core.MonthKey, records []core.Transaction) error
}
