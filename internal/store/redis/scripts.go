package redis

// Server-side scripts are the only consistency primitive the store offers:
// everything that must not race under concurrent invocations goes through one
// of these, everything else is a plain read/write.

// scriptIncrOrInit atomically increments an existing counter or creates it at 1
// with a TTL. A plain GET/branch/SET sequence loses increments when two
// first-pings race; the script holds the key for its whole duration.
// KEYS[1] = counter key, ARGV[1] = ttl seconds.
const scriptIncrOrInit = `
local key = KEYS[1]
local ttl = tonumber(ARGV[1])
local current = redis.call('GET', key)
if current then
  redis.call('INCR', key)
else
  redis.call('SETEX', key, ttl, 1)
end
return redis.call('GET', key)
`

// scriptIncrOrInitRefresh is the same, but a plain increment also renews the
// TTL. Used for counters with keepalive semantics (activity keeps them warm);
// scriptIncrOrInit is used for cumulative buckets whose expiry must not slide.
const scriptIncrOrInitRefresh = `
local key = KEYS[1]
local ttl = tonumber(ARGV[1])
local current = redis.call('GET', key)
if current then
  redis.call('INCR', key)
  redis.call('EXPIRE', key, ttl)
else
  redis.call('SETEX', key, ttl, 1)
end
return redis.call('GET', key)
`

// scriptPushCapped appends to a list, trims it to the newest N entries and
// optionally renews the TTL, all in one unit so concurrent appenders can never
// interleave and leave the list over its cap.
// KEYS[1] = list key, ARGV[1] = value, ARGV[2] = max length, ARGV[3] = ttl seconds (0 = none).
const scriptPushCapped = `
local key = KEYS[1]
local value = ARGV[1]
local max = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])
redis.call('LPUSH', key, value)
redis.call('LTRIM', key, 0, max - 1)
if ttl > 0 then
  redis.call('EXPIRE', key, ttl)
end
return redis.call('LRANGE', key, 0, -1)
`
