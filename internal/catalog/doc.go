// Package catalog implements the catalog feed controller.
//
// A [Feed] accumulates pages of the now-playing listing, drops movies without a synopsis and
// duplicate ids, filters the result by audience [Category] and resolves trailers for the modal.
//
// Pagination is explicit: callers ask for the next page with [Feed.LoadNext], usually when
// [Feed.NearBottom] holds. A single in-flight guard, the exhaustion flag and the failure flag gate
// the request. Results are tagged with a generation and dropped once the feed is closed or reset.
package catalog
