// Package posting uploads approved items to YouTube as scheduled private
// videos.
//
// UploadAll runs a bounded number of rounds over the posting channels in a
// fresh random order each round, pausing a random interval between channels
// and between rounds. Each channel has a daily upload gate: a quota-exceeded
// response closes it until the date rolls over in the platform's timezone.
// Approved items take the next free slot of the channel's publish calendar.
package posting
