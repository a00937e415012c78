package db

import (
	"fmt"
	"time"

	"github.com/markdave123-py/Slidewise/internal/core"
	"github.com/markdave123-py/Slidewise/internal/models"
)

// applyPatch merges p into d in place. It is the one place both stores
// enforce the update rules.
func applyPatch(d *models.Deck, p models.DeckPatch, now time.Time) error {
	if p.ExpectedVersion != 0 && p.ExpectedVersion != d.Version {
		return fmt.Errorf("deck %s is at version %d, expected %d: %w", d.ID, d.Version, p.ExpectedVersion, core.ErrVersionConflict)
	}
	if p.ChangesContent() && len(p.RenderedBinary) == 0 {
		return fmt.Errorf("deck %s: %w", d.ID, core.ErrRenderRequired)
	}

	if p.Outline != nil {
		d.Outline = p.Outline.Clone()
	}
	if p.ImageRefs != nil {
		d.ImageRefs = p.ImageRefs.Clone()
	}
	if p.Theme != nil {
		d.Theme = *p.Theme
	}
	if len(p.RenderedBinary) > 0 {
		d.RenderedBinary = append([]byte(nil), p.RenderedBinary...)
		d.RenderFingerprint = d.ContentFingerprint()
	}
	d.Version++
	d.UpdatedAt = now
	return nil
}

// prepareNew stamps a deck for insertion.
func prepareNew(d *models.Deck, id string, now time.Time) {
	d.ID = id
	d.Version = 1
	d.CreatedAt = now
	d.UpdatedAt = now
	if d.OwnerID == "" {
		d.OwnerID = models.AnonymousOwner
	}
	if len(d.RenderedBinary) > 0 {
		d.RenderFingerprint = d.ContentFingerprint()
	}
}
