package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// ContentKey builds a cache key from a prefix and the content-defining
// parameters of a computation, hashed so arbitrary-length inputs produce
// a bounded key.
func ContentKey(prefix string, params ...interface{}) string {
	raw := prefix
	for _, p := range params {
		raw = fmt.Sprintf("%s:%v", raw, p)
	}
	hasher := md5.New()
	hasher.Write([]byte(raw))
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hasher.Sum(nil)))
}
