// Package services defines the interfaces for the external HTTP APIs and implements them for TMDB, YouTube and Firebase.
//
// # Interfaces
//
//   - [MoviesService] : genres, now-playing pages, popular movies and per-movie videos
//   - [VideoSearchService] : trailer fallback search
//   - [IdentityProvider] : account creation, password and federated sign-in, profile update, lookup
//
// # Transport
//
// Every client is built on [APIService], which resolves paths against a base URL, applies shared
// headers (the TMDB bearer token), and optionally throttles requests with a [rate.Limiter].
// Requests are never retried.
//
// # Federated Sign-In
//
// [GoogleOAuth] drives the OAuth2 authorization code flow. The id token from the exchanged
// token is passed to [IdentityProvider.SignInWithIdp] with provider [ProviderGoogle].
//
// # Error Handling
//
// Services use typed errors that match sentinels from the shared package:
//   - [*APIError] : non-2xx metadata or search response; matches [shared.ErrAPIRequest]
//   - [*IdentityError] : provider rejection with code and message; matches [shared.ErrAuthFailed]
//   - [shared.ErrMissingCredentials] : constructor called without a token or key
//   - [shared.ErrNotFound] : search returned no video
package services
