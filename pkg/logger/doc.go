// Package logger builds slog loggers with the conventions used across the
// module: JSON or text output, static service attributes and dynamic
// attributes extracted from the request context.
//
//	log := logger.New(
//		logger.WithJSONFormat(),
//		logger.WithAttr(slog.String("service", "api")),
//		logger.WithContextExtractors(tenant.LoggerExtractor()),
//	)
//
// With the tenant extractor registered, every record logged with a
// tenant-bound context carries the tenant id automatically.
package logger
