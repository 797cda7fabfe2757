package internal

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// Charset excludes 0/O and 1/I to keep hand-typed codes unambiguous.
const backupCodeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewBackupCodes generates count random recovery codes of the given length.
func NewBackupCodes(count, length int) ([]string, error) {
	codes := make([]string, 0, count)
	max := big.NewInt(int64(len(backupCodeCharset)))

	for i := 0; i < count; i++ {
		var b strings.Builder
		b.Grow(length)
		for j := 0; j < length; j++ {
			n, err := rand.Int(rand.Reader, max)
			if err != nil {
				return nil, err
			}
			b.WriteByte(backupCodeCharset[n.Int64()])
		}
		codes = append(codes, b.String())
	}

	return codes, nil
}
