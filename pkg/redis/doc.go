// Package redis provides helpers for connecting to a Redis server.
//
// It wraps the go-redis client with a retrying Connect and a health-check
// helper for liveness and readiness probes. Configuration is described by
// the Config struct whose fields are populated from environment variables
// via github.com/caarlos0/env.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    // handle error, probably terminate the application
//	}
//	defer client.Close()
//
//	checker := redis.Healthcheck(client)
//
// Sentinel errors (e.g. ErrRedisNotReady) wrap underlying go-redis errors
// with errors.Join, so errors.Is comparisons work.
package redis
