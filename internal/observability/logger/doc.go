// Package logger provides a singleton Zap logger with context-based scoping.
//
// One global instance is initialized with Init(); middlewares inject a
// request-scoped logger (request_id, method, path) into the context and
// services retrieve it with From(ctx). Field helpers keep key names uniform
// across the codebase.
//
// Initialization (once, in main):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
// In handlers/services:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("oauth.token"))
//	log.Info("token issued", logger.ClientID(clientID))
package logger
