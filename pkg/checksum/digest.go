package checksum

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"hash/adler32"
	"hash/crc32"
	"maps"
	"slices"
	"strings"

	"emperror.dev/errors"
	"golang.org/x/crypto/blake2b"
)

type DigestAlgorithm string

const (
	DigestAdler32    DigestAlgorithm = "adler32"
	DigestCRC32      DigestAlgorithm = "crc32"
	DigestMD5        DigestAlgorithm = "md5"
	DigestSHA1       DigestAlgorithm = "sha1"
	DigestSHA256     DigestAlgorithm = "sha256"
	DigestSHA384     DigestAlgorithm = "sha384"
	DigestSHA512     DigestAlgorithm = "sha512"
	DigestBlake2b256 DigestAlgorithm = "blake2b-256"
	DigestBlake2b384 DigestAlgorithm = "blake2b-384"
	DigestBlake2b512 DigestAlgorithm = "blake2b-512"
)

var hashFunc = map[DigestAlgorithm]func() hash.Hash{
	DigestAdler32: func() hash.Hash { return adler32.New() },
	DigestCRC32:   func() hash.Hash { return crc32.NewIEEE() },
	DigestMD5:     md5.New,
	DigestSHA1:    sha1.New,
	DigestSHA256:  sha256.New,
	DigestSHA384:  sha512.New384,
	DigestSHA512:  sha512.New,
	DigestBlake2b256: func() hash.Hash {
		h, err := blake2b.New256(nil)
		if err != nil {
			panic(err)
		}
		return h
	},
	DigestBlake2b384: func() hash.Hash {
		h, err := blake2b.New384(nil)
		if err != nil {
			panic(err)
		}
		return h
	},
	DigestBlake2b512: func() hash.Hash {
		h, err := blake2b.New512(nil)
		if err != nil {
			panic(err)
		}
		return h
	},
}

// METS CHECKSUMTYPE of the algorithms METS can express
var metsChecksumType = map[DigestAlgorithm]string{
	DigestAdler32: "Adler-32",
	DigestCRC32:   "CRC32",
	DigestMD5:     "MD5",
	DigestSHA1:    "SHA-1",
	DigestSHA256:  "SHA-256",
	DigestSHA384:  "SHA-384",
	DigestSHA512:  "SHA-512",
}

var DigestNames = slices.Sorted(maps.Keys(hashFunc))

func HashExists(csType DigestAlgorithm) bool {
	_, ok := hashFunc[csType]
	return ok
}

func GetHash(csType DigestAlgorithm) (hash.Hash, error) {
	f, ok := hashFunc[csType]
	if !ok {
		return nil, errors.Errorf("unknown checksum %s", csType)
	}
	return f(), nil
}

// METSChecksumType returns the CHECKSUMTYPE attribute value for alg.
func METSChecksumType(alg DigestAlgorithm) (string, bool) {
	t, ok := metsChecksumType[alg]
	return t, ok
}

// FromMETSChecksumType maps a CHECKSUMTYPE value back to an algorithm.
func FromMETSChecksumType(checksumType string) (DigestAlgorithm, error) {
	for alg, t := range metsChecksumType {
		if strings.EqualFold(t, checksumType) {
			return alg, nil
		}
	}
	return "", errors.Errorf("unsupported checksum type '%s'", checksumType)
}

// ParseDigestAlgorithm accepts names like "SHA-256", "sha256" or "Sha256".
func ParseDigestAlgorithm(name string) (DigestAlgorithm, error) {
	if alg, err := FromMETSChecksumType(name); err == nil {
		return alg, nil
	}
	alg := DigestAlgorithm(strings.ToLower(strings.TrimSpace(name)))
	if !HashExists(alg) {
		return "", errors.Errorf("unknown digest algorithm '%s', allowed: %v", name, DigestNames)
	}
	return alg, nil
}
