// Package utils contains small generic helpers shared across the application.
package utils
