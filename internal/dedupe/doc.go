// Package dedupe drops repeated chat form submissions. Each send form carries
// a nonce; a nonce submitted twice to the same conversation within the TTL
// (a double click, a refreshed POST) is only processed once.
package dedupe
