// Package models defines host-side data transfer objects for plshuffle.
//
//   - [Playlist] : playlist metadata shown by the catalog listing and the TUI picker
//   - [User] : the authenticated account
//
// The shuffle pipeline itself works on bare track IDs and never needs these types.
package models
