// Package models defines the domain entities shared by the catalog, auth and UI layers.
//
// The package contains two categories of types:
//
// 1. Catalog values: immutable data decoded from the movies metadata API
//   - [Movie] : A movie card with synopsis, poster, genres and vote average
//   - [Genre] : An entry of the genre lookup table; see [GenreTable]
//   - [Page] : One page of a paginated movie listing
//   - [Video] : A video listing entry used for trailer resolution
//
// 2. Identity values: the persisted identity provider session
//   - [Session] : The signed-in user and the tokens issued by the provider
//
// Catalog values are never mutated after decoding; the feed only filters and displays them.
package models
