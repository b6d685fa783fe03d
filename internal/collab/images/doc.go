// Package images fills a work item's images folder.
//
// The channel's curated library (clean_data/<code>) is the primary source.
// Stock providers are optional extras queried in parallel; a failing
// provider is logged and never fails the item.
package images
