/*
Package redis provides Redis-backed adapters for running several service replicas.

# Key Components

  - Store: ports.ResultStore keeping results as JSON with an optional TTL.
  - Locker: ports.DistributedLocker built on SET NX with a token-checked release.

Both accept an existing *redis.Client so they can share one connection pool.
*/
package redis
