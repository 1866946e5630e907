// Package redistest provides an in-memory fake of the store client interface.
// The fake serializes every command behind one mutex, which matches the
// single-threaded execution model of the real server, so the atomicity
// properties of the scripted operations hold under concurrent test load.
package redistest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Fake is an in-memory stand-in for a Redis server, covering the command
// subset the store uses. Zero value is not usable; call New.
type Fake struct {
	mu sync.Mutex

	strings map[string]string
	lists   map[string][]string
	hashes  map[string]map[string]string
	ttls    map[string]time.Duration

	getErrs    map[string]error
	dbSizeErr  error
	pingErr    error
	evalErrAll error
}

// New creates an empty fake store.
func New() *Fake {
	return &Fake{
		strings: make(map[string]string),
		lists:   make(map[string][]string),
		hashes:  make(map[string]map[string]string),
		ttls:    make(map[string]time.Duration),
		getErrs: make(map[string]error),
	}
}

// FailGet makes subsequent GETs of key fail with err.
func (f *Fake) FailGet(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getErrs[key] = err
}

// FailDBSize makes subsequent DBSIZE calls fail with err.
func (f *Fake) FailDBSize(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dbSizeErr = err
}

// FailPing makes subsequent PINGs fail with err.
func (f *Fake) FailPing(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pingErr = err
}

// FailEval makes every scripted operation fail with err.
func (f *Fake) FailEval(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evalErrAll = err
}

// TTL reports the last TTL written for key (0 when none was ever set).
func (f *Fake) TTL(key string) time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ttls[key]
}

// Value returns the raw string value stored at key.
func (f *Fake) Value(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.strings[key]
	return v, ok
}

// List returns a copy of the list stored at key, newest first.
func (f *Fake) List(key string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lists[key]...)
}

func (f *Fake) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.getErrs[key]; err != nil {
		return redis.NewStringResult("", err)
	}
	v, ok := f.strings[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *Fake) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.strings[key] = toString(value)
	if expiration > 0 {
		f.ttls[key] = expiration
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *Fake) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, key := range keys {
		if _, ok := f.strings[key]; ok {
			delete(f.strings, key)
			n++
		}
		if _, ok := f.lists[key]; ok {
			delete(f.lists, key)
			n++
		}
		if _, ok := f.hashes[key]; ok {
			delete(f.hashes, key)
			n++
		}
		delete(f.ttls, key)
	}
	return redis.NewIntResult(n, nil)
}

func (f *Fake) DBSize(ctx context.Context) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dbSizeErr != nil {
		return redis.NewIntResult(0, f.dbSizeErr)
	}
	return redis.NewIntResult(int64(len(f.strings)+len(f.lists)+len(f.hashes)), nil)
}

// Eval dispatches on the script body. Only the store's three scripts are
// understood; anything else fails loudly so a new script cannot silently
// bypass the fake.
func (f *Fake) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.evalErrAll != nil {
		return redis.NewCmdResult(nil, f.evalErrAll)
	}

	switch {
	case strings.Contains(script, "LPUSH"):
		return f.evalPushCapped(keys[0], args)
	case strings.Contains(script, "INCR"):
		return f.evalIncrOrInit(keys[0], args, strings.Contains(script, "EXPIRE"))
	default:
		return redis.NewCmdResult(nil, errUnknownScript)
	}
}

func (f *Fake) evalIncrOrInit(key string, args []interface{}, refresh bool) *redis.Cmd {
	ttl := time.Duration(toInt(args[0])) * time.Second
	if cur, ok := f.strings[key]; ok {
		n, _ := strconv.ParseInt(cur, 10, 64)
		f.strings[key] = strconv.FormatInt(n+1, 10)
		if refresh {
			f.ttls[key] = ttl
		}
	} else {
		f.strings[key] = "1"
		f.ttls[key] = ttl
	}
	return redis.NewCmdResult(f.strings[key], nil)
}

func (f *Fake) evalPushCapped(key string, args []interface{}) *redis.Cmd {
	value := toString(args[0])
	max := int(toInt(args[1]))
	ttl := time.Duration(toInt(args[2])) * time.Second

	list := append([]string{value}, f.lists[key]...)
	if len(list) > max {
		list = list[:max]
	}
	f.lists[key] = list
	if ttl > 0 {
		f.ttls[key] = ttl
	}

	out := make([]interface{}, len(list))
	for i, v := range list {
		out[i] = v
	}
	return redis.NewCmdResult(out, nil)
}

func (f *Fake) LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.lists[key]
	n := int64(len(list))
	if stop < 0 {
		stop = n + stop
	}
	if start < 0 {
		start = n + start
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop {
		return redis.NewStringSliceResult([]string{}, nil)
	}
	return redis.NewStringSliceResult(append([]string(nil), list[start:stop+1]...), nil)
}

func (f *Fake) HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := f.hashes[key]
	if h == nil {
		h = make(map[string]string)
		f.hashes[key] = h
	}
	var added int64
	for i := 0; i+1 < len(values); i += 2 {
		field := toString(values[i])
		if _, ok := h[field]; !ok {
			added++
		}
		h[field] = toString(values[i+1])
	}
	return redis.NewIntResult(added, nil)
}

func (f *Fake) HIncrBy(ctx context.Context, key, field string, incr int64) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := f.hashes[key]
	if h == nil {
		h = make(map[string]string)
		f.hashes[key] = h
	}
	n, _ := strconv.ParseInt(h[field], 10, 64)
	n += incr
	h[field] = strconv.FormatInt(n, 10)
	return redis.NewIntResult(n, nil)
}

func (f *Fake) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.hashes[key]))
	for k, v := range f.hashes[key] {
		out[k] = v
	}
	return redis.NewMapStringStringResult(out, nil)
}

func (f *Fake) Ping(ctx context.Context) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pingErr != nil {
		return redis.NewStatusResult("", f.pingErr)
	}
	return redis.NewStatusResult("PONG", nil)
}

var errUnknownScript = errors.New("redistest: unrecognized script")

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}

func toInt(v interface{}) int64 {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int64:
		return t
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	default:
		return 0
	}
}
