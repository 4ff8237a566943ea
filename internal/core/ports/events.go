package ports

import "github.com/nopayn/psp-bridge/internal/core/domain"

// EventPublisher announces applied order-status transitions to the rest of
// the platform. Publishing is fire-and-forget; a failed or slow publish must
// never block or fail reconciliation.
type EventPublisher interface {
	PublishStatusChanged(entry *domain.LedgerEntry, from, to domain.LocalStatus)
}
