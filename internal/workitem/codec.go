package workitem

import (
	"regexp"
	"strconv"
	"time"

	"influencer/internal/services"
	"influencer/internal/textutil"
)

// Codec serializes an item's identity and record to a single name.
type Codec interface {
	Encode(Item) string
	Decode(name string) (Item, error)
}

// DirName is the folder naming grammar.
type DirName struct{}

var dirNamePattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9]*)-([0-9]+)_State([0-9X])_([0-9]{4}-[0-9]{2}-[0-9]{2})_([A-Za-z0-9 _-]+)$`)

// Encode renders the item as a folder name. The title is sanitized; an empty
// result becomes the placeholder.
func (DirName) Encode(item Item) string {
	title := textutil.SanitizeTitle(item.Title)
	if title == "" {
		title = Placeholder
	}
	return item.Series + "-" + strconv.Itoa(item.Seq) + "_" + item.Stage.String() + "_" + item.DisplayDate() + "_" + title
}

// Decode parses a folder name. Names outside the grammar fail with
// services.ErrMalformedIdentity.
func (DirName) Decode(name string) (Item, error) {
	m := dirNamePattern.FindStringSubmatch(name)
	if m == nil {
		return Item{}, services.Wrap(services.ErrMalformedIdentity, "workitem", "decode", name, nil)
	}
	seq, err := strconv.Atoi(m[2])
	if err != nil {
		return Item{}, services.Wrap(services.ErrMalformedIdentity, "workitem", "decode sequence", name, err)
	}
	stage, err := ParseStage(m[3])
	if err != nil {
		return Item{}, services.Wrap(services.ErrMalformedIdentity, "workitem", "decode stage", name, err)
	}
	var created time.Time
	if m[4] != "0000-00-00" {
		created, err = time.ParseInLocation(DateLayout, m[4], time.Local)
		if err != nil {
			return Item{}, services.Wrap(services.ErrMalformedIdentity, "workitem", "decode date", name, err)
		}
	}
	title := m[5]
	if title == Placeholder {
		title = ""
	}
	return Item{Series: m[1], Seq: seq, Stage: stage, Created: created, Title: title}, nil
}
