// Package sso drives an identity-provider login flow in a real browser
// session and harvests the resulting authentication cookies.
//
// The flow is a strict sequence: optional pre-login click, provider button
// click, optional popup switch, username, password and optional one-time-code
// entry, optional window restore, then cookie extraction once the post-login
// marker appears. All browser interaction goes through the narrow interfaces
// in internal/browser; one-time codes come from internal/otp.
package sso
