package storage

import (
	"encoding/hex"
	"fmt"
	"time"
)

// Key schema:
//
//   fill:<hex(symbol)>:<unix-nanos>:<fillID>  -> fill record
//   ord:<hex(owner)>:<orderID>                -> latest order record
//
// Owner and symbol are hex-encoded so a segment can never contain the ':'
// separator; a prefix scan for one owner cannot reach another's keys.
// Timestamps are zero-padded (20 digits) so keys sort chronologically.
const (
	prefixFill  = "fill:"
	prefixOrder = "ord:"
)

func segment(s string) string { return hex.EncodeToString([]byte(s)) }

func fillKey(symbol string, ts time.Time, fillID string) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d:%s", prefixFill, segment(symbol), ts.UnixNano(), fillID))
}

func fillPrefix(symbol string) []byte {
	return []byte(fmt.Sprintf("%s%s:", prefixFill, segment(symbol)))
}

func orderKey(owner, orderID string) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", prefixOrder, segment(owner), orderID))
}

func orderPrefix(owner string) []byte {
	return []byte(fmt.Sprintf("%s%s:", prefixOrder, segment(owner)))
}

// keyUpperBound returns the exclusive upper bound for a prefix scan
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}
