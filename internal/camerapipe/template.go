package camerapipe

import (
	"time"

	"motiond/internal/imaging"
)

// RenderNameFunc returns a handlers.TemplateFunc closed over p's static
// identity fields (id, name, width, height). Per-event values (event_id,
// changed pixels, box geometry, dbeventid) are unavailable at this call site
// since TemplateFunc only carries a timestamp; their specifiers expand to
// the zero value ("0", or an empty string for text fields). Every handler,
// the SQL binder's queries included, renders through this one function.
func RenderNameFunc(p Profile) func(template string, t time.Time) string {
	return func(template string, t time.Time) string {
		return imaging.StrftimePlus(template, t, imaging.TemplateContext{
			CameraID:   p.ID,
			CameraName: p.Name,
			Width:      p.Width,
			Height:     p.Height,
		})
	}
}
