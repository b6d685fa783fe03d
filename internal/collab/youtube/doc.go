// Package youtube uploads finished videos as scheduled private videos.
//
// Authorization uses an installed-app OAuth flow; each channel's token is
// cached as JSON in the configured token directory and refreshed tokens are
// written back. Upload errors are mapped onto the services taxonomy:
// quotaExceeded and uploadLimitExceeded become ErrQuotaExceeded, 5xx and I/O
// failures are transient, anything else (including a revoked token) is fatal.
package youtube
