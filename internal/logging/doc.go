// Package logging provides the zap logger shared by the bundle.
//
// Production output is JSON lines, development output is colored console
// text. Components receive a *Logger and derive named children from it:
// clients log under "elasticsearch", plus the client's configured logger
// name when it has one, with the client id as a field.
//
// Example Usage:
//
//	logger, err := logging.New(logging.ProcessConfig("info", false))
//	clientLog := logger.Named("elasticsearch").With(zap.String("client", "main"))
//	clientLog.Debug("call completed", zap.String("uri", "/idx/_search"))
package logging
