// Command influencer drives the short-form video channels kept under the
// configured channels directory: producing items from pending topics,
// reviewing and editing them, and uploading approved videos on schedule.
//
// Each channel is a folder with a channel.yaml profile; work items live under
// its Outputs folder and their stage is encoded in the folder name. Commands
// that mutate a channel take that channel's lock, so a manual run and the
// daemon never touch the same root at once.
package main
