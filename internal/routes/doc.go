// Package routes defines the client-side route surface and the session guard.
//
// # Routes
//
// The application has four views: [Login], [Register], [Catalog] and [NotFound].
// The root path redirects to [Login] and any unknown path redirects to [NotFound].
// [Catalog] is the only gated route; [Resolve] sends it to [Login] when the
// [SessionAccessor] reports no active session.
//
// # Navigation
//
// Components that change the view (the auth gateway, the catalog logout) depend on the
// [Navigator] interface. The TUI supplies a navigator that re-renders the model, while the
// CLI records navigations in a [History] and inspects where a command ended up.
package routes
