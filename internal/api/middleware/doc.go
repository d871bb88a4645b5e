// Package middleware contains HTTP middleware shared by every route.
package middleware
