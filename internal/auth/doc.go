// Package auth implements the auth gateway: registration, password and federated sign-in, and logout.
//
// The [Gateway] is the only writer of the session. It persists sessions through a [SessionStore],
// issues navigations through a [routes.Navigator], and is itself the [routes.SessionAccessor] that
// the route guard reads. There is no package-level session handle.
//
// Federated sign-in is delegated to a [FederatedSignIn]; [BrowserFlow] implements it with the
// Google consent page opened in the system browser and a local callback server.
package auth
