// Package notify delivers enrichment events such as failed enhancers and
// detected merge conflicts.
//
// Implementations:
//   - SlackNotifier: posts to a Slack incoming webhook
//   - WebhookNotifier: posts the event JSON to any URL
//   - LogNotifier: logs events with slog
//   - MultiNotifier: fans out to several notifiers
//   - AsyncNotifier: queues events for a background worker
//   - NopNotifier: discards everything
//
// Example usage:
//
//	n := notify.NewAsyncNotifier(notify.NewSlackNotifier(url,
//	    notify.WithSlackChannel("#dev-alerts"),
//	), 0, logger)
//	defer n.Close()
package notify
