package utils

import (
	"crypto/md5"
	"fmt"
	"time"
)

// GenerateETag builds a weak validator from a record id and its last update
// time, for If-None-Match handling on read endpoints.
func GenerateETag(id uint64, updatedAt time.Time) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%d-%d", id, updatedAt.UnixNano())))
	return fmt.Sprintf(`"%x"`, sum)
}
