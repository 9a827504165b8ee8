// Package server runs the short-lived HTTP listener behind 'plshuffle auth login'.
//
// # Routing
//
// [BasicRouter] registers "METHOD /path" patterns on an [http.ServeMux]. [Middleware] added with
// [BasicRouter.Use] wraps every route; the first one added is the outermost. [LoggingMiddleware]
// records method, path, status and duration, leaving out the query so codes never reach the log.
//
// A [Handler] is an [http.Handler] that also names its routes, so [BasicRouter.Handler] can mount
// it without the caller repeating paths.
//
// # Callback
//
// [OAuthHandler] serves the redirect URI's path. It accepts one callback: the state must match,
// a denied consent is reported as [shared.ErrAuthFailed], and the code is exchanged through an
// [Exchanger]. The outcome arrives once on [OAuthHandler.Result].
package server
