package redis

// Redis key naming conventions for plangen data.
// All keys are prefixed with "plangen:" to avoid collisions.

const keyPrefix = "plangen:"

// jobKey returns the key for a job entity: plangen:job:{id}
func jobKey(id string) string { return keyPrefix + "job:" + id }

// jobIDsKey is the Set tracking all job IDs for enumeration.
const jobIDsKey = keyPrefix + "job_ids"
