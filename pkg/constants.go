package hashengine

import (
	"strings"
	"time"
)

// Debug flag names understood by IsDebugEnabled
const (
	DebugWalk      = "walk"
	DebugWorker    = "worker"
	DebugQueue     = "queue"
	DebugBoundary  = "boundary"
	DebugLifecycle = "lifecycle"
)

// Hash type constants
const (
	HashTypeMD5      uint16 = 1 // MD5 (16 bytes), the digest exposed by the C ABI
	HashTypeSHA1     uint16 = 2 // SHA-1 (20 bytes)
	HashTypeSHA256   uint16 = 3 // SHA-256 (32 bytes)
	HashTypeSHA512   uint16 = 4 // SHA-512 (64 bytes)
	HashTypeBLAKE3   uint16 = 5 // BLAKE3 (32 bytes)
	HashTypeXXHash64 uint16 = 6 // xxHash64 (8 bytes)
)

// Hash size constants
const (
	HashSizeMD5      = 16
	HashSizeSHA1     = 20
	HashSizeSHA256   = 32
	HashSizeSHA512   = 64
	HashSizeBLAKE3   = 32
	HashSizeXXHash64 = 8
)

// HashTypeName returns the human-readable name for a hash type
func HashTypeName(hashType uint16) string {
	switch hashType {
	case HashTypeMD5:
		return "md5"
	case HashTypeSHA1:
		return "sha1"
	case HashTypeSHA256:
		return "sha256"
	case HashTypeSHA512:
		return "sha512"
	case HashTypeBLAKE3:
		return "blake3"
	case HashTypeXXHash64:
		return "xxhash64"
	default:
		return "unknown"
	}
}

// HashTypeFromName returns the hash type constant from a name (case-insensitive)
func HashTypeFromName(name string) (uint16, bool) {
	switch strings.ToLower(name) {
	case "md5":
		return HashTypeMD5, true
	case "sha1":
		return HashTypeSHA1, true
	case "sha256":
		return HashTypeSHA256, true
	case "sha512":
		return HashTypeSHA512, true
	case "blake3":
		return HashTypeBLAKE3, true
	case "xxhash64":
		return HashTypeXXHash64, true
	default:
		return 0, false
	}
}

// Defaults used when no configuration file overrides them
const (
	DefaultHashAlgorithm  = "md5"
	DefaultHashBuffer     = "2M"
	DefaultTerminateGrace = 5 * time.Second
	DefaultForceGrace     = 1 * time.Second
)

// Environment variable naming the configuration file read by the C library on HashInit
const ConfigEnvVar = "LIBHASH_CONFIG"
