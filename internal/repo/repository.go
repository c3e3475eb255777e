package repo

import (
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// DefaultInterval paces the scheduler when no target is configured.
const DefaultInterval = 30 * time.Second

// TargetRegistry is the read-only view of the monitored sites.
type TargetRegistry interface {
	List() []domain.Target
	MinInterval() time.Duration
	Lookup(name string) (domain.Target, bool)
}
