package importer

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Tracker reports rows written to the store.
type Tracker struct {
	bar *progressbar.ProgressBar
}

// NewTracker returns a tracker rendering to w, or a silent one if w is nil.
func NewTracker(w io.Writer, total int64) *Tracker {
	if w == nil {
		return &Tracker{}
	}
	return &Tracker{
		bar: progressbar.NewOptions64(
			total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("Writing"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("rows"),
			progressbar.OptionSetRenderBlankState(true),
		),
	}
}

// Add increments the progress counter
func (t *Tracker) Add(n int) {
	if t != nil && t.bar != nil {
		_ = t.bar.Add(n)
	}
}

// Finish marks the progress as complete
func (t *Tracker) Finish() {
	if t != nil && t.bar != nil {
		_ = t.bar.Finish()
	}
}
