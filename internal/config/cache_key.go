package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key holding the active token id of a user.
func (r *CacheKeyStruct) UserSessionKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// RateLimitKey returns the counter key of a client on a route.
func (r *CacheKeyStruct) RateLimitKey(route, clientIP string) string {
	return fmt.Sprintf("rate_limit:%s:%s", route, clientIP)
}

var CacheKey = NewCacheKeyStruct()
