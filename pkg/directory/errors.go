package directory

import (
	"github.com/pg-sharding/shardmapctl/pkg/models/spqrerror"
)

// storeError marks err as a store failure. The store message stays part of the text
// so the operator sees the original cause.
func storeError(err error, msg string) error {
	return spqrerror.Wrap(spqrerror.SPQR_STORE_ERROR, err, msg)
}
