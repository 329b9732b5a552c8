package hashengine

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"
	"github.com/zeebo/blake3"
	"golang.org/x/sys/unix"
)

// errHashInterrupted is returned when the force-stop channel closes mid-file
var errHashInterrupted = errors.New("hash operation interrupted by shutdown")

// HashAlgorithm represents a hash algorithm configuration
type HashAlgorithm struct {
	Name    string
	TypeID  uint16
	Size    int
	NewFunc func() hash.Hash
}

// GetHashAlgorithm returns the hash algorithm configuration for the given name
func GetHashAlgorithm(name string) (*HashAlgorithm, error) {
	switch strings.ToLower(name) {
	case "md5":
		return &HashAlgorithm{
			Name:    "md5",
			TypeID:  HashTypeMD5,
			Size:    HashSizeMD5,
			NewFunc: md5.New,
		}, nil
	case "sha1":
		return &HashAlgorithm{
			Name:    "sha1",
			TypeID:  HashTypeSHA1,
			Size:    HashSizeSHA1,
			NewFunc: sha1.New,
		}, nil
	case "sha256":
		return &HashAlgorithm{
			Name:    "sha256",
			TypeID:  HashTypeSHA256,
			Size:    HashSizeSHA256,
			NewFunc: sha256.New,
		}, nil
	case "sha512":
		return &HashAlgorithm{
			Name:    "sha512",
			TypeID:  HashTypeSHA512,
			Size:    HashSizeSHA512,
			NewFunc: sha512.New,
		}, nil
	case "blake3":
		return &HashAlgorithm{
			Name:    "blake3",
			TypeID:  HashTypeBLAKE3,
			Size:    HashSizeBLAKE3,
			NewFunc: func() hash.Hash { return blake3.New() },
		}, nil
	case "xxhash64":
		return &HashAlgorithm{
			Name:    "xxhash64",
			TypeID:  HashTypeXXHash64,
			Size:    HashSizeXXHash64,
			NewFunc: func() hash.Hash { return xxhash.New() },
		}, nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %s", name)
	}
}

// GetHashAlgorithmByType returns the hash algorithm configuration for the given type ID
func GetHashAlgorithmByType(typeID uint16) (*HashAlgorithm, error) {
	name := HashTypeName(typeID)
	if name == "unknown" {
		return nil, fmt.Errorf("unsupported hash type ID: %d", typeID)
	}
	return GetHashAlgorithm(name)
}

// FormatDigest renders a digest as fixed-width uppercase hexadecimal,
// the form carried in log lines.
func FormatDigest(digest []byte) string {
	return strings.ToUpper(hex.EncodeToString(digest))
}

// HashFileInterruptible calculates the hash of a file using a configurable buffer size
// and checks for shutdown signals between buffer reads for graceful interruption
func HashFileInterruptible(fs afero.Fs, filePath string, algorithm *HashAlgorithm, buffer []byte, shutdownChan <-chan struct{}) ([]byte, error) {
	file, err := fs.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	adviseSequential(file)

	hasher := algorithm.NewFunc()

	for {
		select {
		case <-shutdownChan:
			return nil, errHashInterrupted
		default:
		}

		n, err := file.Read(buffer)
		if n > 0 {
			hasher.Write(buffer[:n])
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read from file %s: %w", filePath, err)
		}
	}

	return hasher.Sum(nil), nil
}

// adviseSequential hints the kernel that the whole file is read once front to back.
// Only real files benefit; in-memory filesystems are left alone.
func adviseSequential(file afero.File) {
	osFile, ok := file.(*os.File)
	if !ok {
		return
	}
	if err := unix.Fadvise(int(osFile.Fd()), 0, 0, unix.FADV_SEQUENTIAL); err != nil {
		debugLog(DebugWorker, "fadvise %s: %v", osFile.Name(), err)
	}
}

// Digester is the digest primitive shared by every worker of a library instance.
// Read buffers are pooled so concurrent operations do not each allocate a full buffer per file.
type Digester struct {
	fs        afero.Fs
	algorithm *HashAlgorithm
	pool      sync.Pool
}

// NewDigester creates a digester reading through fs with buffers of bufferSize bytes
func NewDigester(fs afero.Fs, algorithm *HashAlgorithm, bufferSize int) *Digester {
	if bufferSize <= 0 {
		bufferSize = 32 * 1024
	}
	d := &Digester{
		fs:        fs,
		algorithm: algorithm,
	}
	d.pool.New = func() interface{} {
		buffer := make([]byte, bufferSize)
		return &buffer
	}
	return d
}

// Algorithm returns the configured hash algorithm
func (d *Digester) Algorithm() *HashAlgorithm {
	return d.algorithm
}

// Digest hashes the file at path and returns its uppercase hex digest.
// A closed shutdownChan aborts the read at the next buffer boundary.
func (d *Digester) Digest(path string, shutdownChan <-chan struct{}) (string, error) {
	bufPtr := d.pool.Get().(*[]byte)
	defer d.pool.Put(bufPtr)

	sum, err := HashFileInterruptible(d.fs, path, d.algorithm, *bufPtr, shutdownChan)
	if err != nil {
		return "", err
	}
	return FormatDigest(sum), nil
}
