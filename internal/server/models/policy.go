package models

import (
	"fmt"

	"github.com/dmitrijs2005/safedrop/internal/common"
)

const (
	DefaultMaxDownloads  uint32 = 1
	DefaultExpirySeconds uint32 = 24 * 60 * 60
)

// RetentionPolicy is forwarded verbatim to the Core Store, which alone
// enforces it.
type RetentionPolicy struct {
	MaxDownloads  uint32
	ExpirySeconds uint32
}

// DefaultRetentionPolicy allows a single download within one day.
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{MaxDownloads: DefaultMaxDownloads, ExpirySeconds: DefaultExpirySeconds}
}

func (p RetentionPolicy) Validate() error {
	if p.MaxDownloads < 1 {
		return fmt.Errorf("%w: max downloads must be at least 1", common.ErrorInvalidArgument)
	}
	return nil
}
