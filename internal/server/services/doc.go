// Package services contains server-side business logic: identity
// (registration and credential checks), sessions (token pairs carried in
// cookies) and ownership-scoped task management.
//
// Services take their database executor from the request context via
// dbx.Executor, so every repository call made while handling one request
// shares that request's transaction.
package services
