// Package models defines the entities moved through a playlist export.
//
//   - [Playlist] : playlist metadata from the source catalog
//   - [SourceTrack] : one playlist entry as read from the source catalog
//   - [MatchedTrack] : a source track paired with its match catalog id
//   - [ConversionRequest] : which playlist to export and in which [Format]
//
// Tokens are plain [golang.org/x/oauth2.Token] values and are not modelled here.
package models
