// Package daemon runs production and posting unattended on cron schedules.
//
// A Daemon holds a flock-based process lock so only one instance drives the
// channel roots, registers each Job with a robfig/cron scheduler, and skips a
// tick when the previous run of any job is still in progress. Jobs receive the
// daemon's context, so stopping the daemon (or a SIGINT/SIGTERM delivered to
// the command) cancels every sleep and wait inside a run.
//
// Keep orchestration logic out of here: jobs call into the production and
// posting packages and the daemon only owns startup, shutdown and timing.
package daemon
