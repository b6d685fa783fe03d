// Package notifications alerts the operator through a Telegram bot.
//
// Delivery is best effort: each message is retried with a fixed short delay up
// to the configured attempt count and then logged as dropped. Callers never
// see a delivery error, except from TestNotification which exists to surface
// one. When no bot token or chat id is configured a noop service is returned.
package notifications
