// Package logging provides structured logging on Zap.
//
// # Overview
//
// The package wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Automatic context field injection (trace_id, span_id, session.id, problem.id)
//   - A TestLogger for asserting on emitted entries
//
// Pipeline components take a plain *zap.Logger; pass Logger.Underlying().
//
// # Usage
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithSessionID(ctx, "sess_123")
//	logger.Info(ctx, "session solved", zap.Int("solutions", 7))
//
// # Configuration Precedence
//
//  1. Defaults (NewDefaultConfig)
//  2. File (logging section of config.yaml)
//  3. Environment variables (PROBLEMSOLVER_LOGGING_*)
//
// # Testing
//
//	tl := logging.NewTestLogger()
//	svc := newService(tl.Underlying())
//	tl.AssertLogged(t, zapcore.WarnLevel, "collaborator unavailable")
package logging
