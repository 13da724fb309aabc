// Package redis implements job.Store on Redis. Each job is one
// msgpack-encoded value, an auxiliary Set tracks job IDs for
// enumeration, and read-modify-write operations run inside WATCH/MULTI
// transactions so a concurrent writer aborts rather than clobbers.
//
// Usage:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	s := redisstore.New(client)
//	if err := s.Ping(ctx); err != nil { ... }
package redis
