package workitem

import (
	"fmt"
	"time"
)

// Placeholder is the title used before a real one is known.
const Placeholder = "NoTitle"

// DateLayout is the creation date format inside names.
const DateLayout = "2006-01-02"

// Item is one video in progress. Series and Seq identify it; Stage, Created
// and Title are the mutable record. Dir is the directory holding its
// artifacts, set by the repository that produced the item.
type Item struct {
	Series  string
	Seq     int
	Stage   Stage
	Created time.Time
	Title   string
	Dir     string
}

// Key is the stable identity "<series>-<seq>".
func (i Item) Key() string {
	return fmt.Sprintf("%s-%d", i.Series, i.Seq)
}

// DisplayTitle returns the title or the placeholder.
func (i Item) DisplayTitle() string {
	if i.Title == "" {
		return Placeholder
	}
	return i.Title
}

// DisplayDate returns the creation date as written in names.
func (i Item) DisplayDate() string {
	if i.Created.IsZero() {
		return "0000-00-00"
	}
	return i.Created.Format(DateLayout)
}
