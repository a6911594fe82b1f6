package database

import (
	"bytes"
	"encoding/hex"
)

var separator = []byte("/")

// Key is a full database key made of a bucket path prefix and a suffix.
type Key struct {
	prefix, suffix []byte
}

// NewKey returns a new key composed of the given prefix and suffix.
func NewKey(prefix, suffix []byte) *Key {
	return &Key{prefix: prefix, suffix: suffix}
}

// Bytes returns the prefix concatenated with the suffix.
func (k *Key) Bytes() []byte {
	keyBytes := make([]byte, len(k.prefix)+len(k.suffix))
	copy(keyBytes, k.prefix)
	copy(keyBytes[len(k.prefix):], k.suffix)
	return keyBytes
}

// Suffix returns the part of the key following its bucket path.
func (k *Key) Suffix() []byte {
	return k.suffix
}

func (k *Key) String() string {
	return string(k.prefix) + hex.EncodeToString(k.suffix)
}

// Bucket is a path of nested bucket names used to build keys and
// prefix-bounded cursors.
type Bucket struct {
	path [][]byte
}

// MakeBucket creates a new Bucket from the given path elements.
func MakeBucket(path ...[]byte) *Bucket {
	return &Bucket{path: path}
}

// Bucket returns the named sub-bucket of b.
func (b *Bucket) Bucket(name []byte) *Bucket {
	newPath := make([][]byte, len(b.path), len(b.path)+1)
	copy(newPath, b.path)
	return MakeBucket(append(newPath, name)...)
}

// Key returns the key with the given suffix inside b.
func (b *Bucket) Key(suffix []byte) *Key {
	return NewKey(b.Path(), suffix)
}

// Path returns the bucket path joined by "/", with a trailing separator.
func (b *Bucket) Path() []byte {
	bucketPath := bytes.Join(b.path, separator)
	return append(bucketPath, separator...)
}
