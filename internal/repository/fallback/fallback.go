// Package fallback selects the storage strategy for profile and sharing
// data once, at construction. With the remote flag on, every call goes to
// the row store first and is answered from the local cache when the remote
// reports it is unreachable or not migrated. With the flag off only the
// local cache is used.
package fallback

import (
	"github.com/jwalitptl/clinical-records/internal/repository"
	apperrors "github.com/jwalitptl/clinical-records/pkg/errors"
	"github.com/jwalitptl/clinical-records/pkg/logger"
	"github.com/jwalitptl/clinical-records/pkg/metrics"
)

// shouldFallback reports whether err is a remote fault the cache may absorb.
func shouldFallback(err error) bool {
	return apperrors.IsBackendUnavailable(err) || apperrors.IsSchemaMismatch(err)
}

type base struct {
	name    string
	log     *logger.Logger
	metrics *metrics.Metrics
}

func (b *base) fellBack(op string, err error) {
	b.log.Warn(err, "remote store failed, using local cache",
		"repository", b.name, "operation", op)
	if b.metrics != nil {
		b.metrics.CacheFallbacks.WithLabelValues(b.name).Inc()
	}
}

func newBase(name string, log *logger.Logger, m *metrics.Metrics) base {
	if log == nil {
		log = logger.Nop()
	}
	return base{name: name, log: log.With("fallback"), metrics: m}
}

// NewSharing returns the sharing repository for the configured strategy.
func NewSharing(remoteEnabled bool, remote, local repository.SharingRepository, log *logger.Logger, m *metrics.Metrics) repository.SharingRepository {
	if !remoteEnabled {
		return local
	}
	return &sharingRepository{base: newBase("sharing", log, m), remote: remote, local: local}
}

// NewProfile returns the profile repository for the configured strategy.
func NewProfile(remoteEnabled bool, remote, local repository.ProfileRepository, log *logger.Logger, m *metrics.Metrics) repository.ProfileRepository {
	if !remoteEnabled {
		return local
	}
	return &profileRepository{base: newBase("profile", log, m), remote: remote, local: local}
}
