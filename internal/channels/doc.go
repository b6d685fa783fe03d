// Package channels describes each influencer channel as a set of small
// capability interfaces and keeps them in a name-keyed Registry.
//
// A channel is loaded from <channels_dir>/<name>/channel.yaml. Profile is the
// YAML-backed implementation of every capability; code that needs only one
// facet (the posting loop needs UploadParams and Credentials, the narration
// step needs SoundProfile) accepts that interface alone.
package channels
