// Package lock provides try-locks keyed by string.
//
// A held key makes TryLock fail at once with ErrLocked; callers report "busy" instead of
// queueing. MemoryLocker serves a single process. RedisLocker extends the guarantee to
// every process sharing a redis instance, using a random token per holder so that only
// the holder can release or renew its key.
package lock
