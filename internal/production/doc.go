// Package production drives new work items from a channel's topic queue
// through script, images, narration, audio mix, subtitles, render and
// thumbnail. Each step deposits artifacts in the item folder; lifecycle
// advancement after every step keeps the persisted stage in sync.
//
// A failing topic never stops the batch: the error is logged with the topic
// title, fatal collaborator failures are notified, and the abandoned-item
// sweep reclaims the partial folder. Scripts too short to narrate are a soft
// stop followed by a cooldown.
package production
