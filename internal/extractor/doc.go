// Package extractor pulls typed record arrays out of a merged export document.
//
// Exporters have used several top-level key names for the same content over
// time. Each record type is described by an ordered list of rules; every rule
// whose predicate matches contributes its records, in rule order:
//
//	posts:    posts, status_updates, timeline, your_posts, then the single-post shape
//	friends:  friends, friends_v2, your_friends, then a bare array of {name}
//	media:    photos, photos_v2, other_photos_v2, videos, videos_v2, media, then a bare array of {uri}
//	messages: messages, inbox_messages
//
// Unknown shapes produce empty arrays, never an error.
package extractor
