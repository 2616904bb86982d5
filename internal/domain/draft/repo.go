package draft

import "context"

type Repository interface {
	Create(ctx context.Context, d *Draft) error
	// Get returns the live draft, or nil when absent or expired.
	Get(ctx context.Context, visitID string) (*Draft, error)
	// Save is the last-writer-wins path used by direct panel edits.
	Save(ctx context.Context, d *Draft) error
	// CompareAndSave writes only when the stored version still equals
	// baseVersion; ErrVersionConflict otherwise.
	CompareAndSave(ctx context.Context, d *Draft, baseVersion int) error
	Delete(ctx context.Context, visitID, draftID string) error
	// ListExpired returns drafts past their expiry, live and backup alike.
	// Full scan; maintenance only.
	ListExpired(ctx context.Context) ([]*Draft, error)
}
