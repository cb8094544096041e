// Package app provides the main application logic for automated
// identity-provider logins. It assembles the login service, the one-time-code
// provider and the event sink, runs the flow and delivers the harvested
// cookies to a file or stdout.
package app
