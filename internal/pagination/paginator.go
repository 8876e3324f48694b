package pagination

import "fmt"

// DefaultLimit is the fixed log page size
const DefaultLimit = 50

// Window is an offset/limit view into an ordered result set
type Window struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// NewWindow returns the first page window for limit. A non-positive
// limit falls back to DefaultLimit.
func NewWindow(limit int) Window {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return Window{Limit: limit}
}

// Next advances by one page. It does not check against the total; the
// caller disables the control instead.
func (w Window) Next() Window {
	return Window{Offset: w.Offset + w.Limit, Limit: w.Limit}
}

// Prev retreats by one page and never goes below zero.
func (w Window) Prev() Window {
	offset := w.Offset - w.Limit
	if offset < 0 {
		offset = 0
	}
	return Window{Offset: offset, Limit: w.Limit}
}

// Reset returns to the first page.
func (w Window) Reset() Window {
	return Window{Limit: w.Limit}
}

// Info describes the pagination controls for a page as returned by the
// server
type Info struct {
	Start        int  `json:"start"`
	End          int  `json:"end"`
	Total        int  `json:"total"`
	PrevDisabled bool `json:"prev_disabled"`
	NextDisabled bool `json:"next_disabled"`
}

// Describe computes the controls from the server-reported offset, page
// count and total.
func Describe(offset, count, total int) Info {
	return Info{
		Start:        offset + 1,
		End:          offset + count,
		Total:        total,
		PrevDisabled: offset == 0,
		NextDisabled: offset+count >= total,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("Showing %d-%d of %d entries", i.Start, i.End, i.Total)
}
