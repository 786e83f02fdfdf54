package broker

// The three scripts below implement spec.md §4.1. Each runs atomically on
// one endpoint with respect to other commands against the same keys. ARGV
// layout is shared: ARGV[1] is the lock value, ARGV[2] is the TTL in
// milliseconds (acquire/extend only), and the last ARGV slot is the
// logical database index, selected best-effort so endpoints without
// logical-database support still work.

const acquireScript = `
local value = ARGV[1]
local ttl = ARGV[2]
local db = ARGV[#ARGV]
pcall(function() redis.call('SELECT', db) end)
for i = 1, #KEYS do
    if redis.call('GET', KEYS[i]) then
        return 0
    end
end
for i = 1, #KEYS do
    redis.call('SET', KEYS[i], value, 'PX', ttl)
end
return #KEYS
`

const extendScript = `
local value = ARGV[1]
local ttl = ARGV[2]
local db = ARGV[#ARGV]
pcall(function() redis.call('SELECT', db) end)
for i = 1, #KEYS do
    if redis.call('GET', KEYS[i]) ~= value then
        return 0
    end
end
for i = 1, #KEYS do
    redis.call('SET', KEYS[i], value, 'PX', ttl)
end
return #KEYS
`

const releaseScript = `
local value = ARGV[1]
local db = ARGV[#ARGV]
pcall(function() redis.call('SELECT', db) end)
local removed = 0
for i = 1, #KEYS do
    if redis.call('GET', KEYS[i]) == value then
        redis.call('DEL', KEYS[i])
        removed = removed + 1
    end
end
return removed
`
