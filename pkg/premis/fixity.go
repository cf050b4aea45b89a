package premis

import "strings"

const locCryptoAuthorityURI = "http://id.loc.gov/vocabulary/preservation/cryptographicHashFunctions"

var locCryptoFunctions = map[string]string{
	"crc32":  "CRC32",
	"md5":    "MD5",
	"sha1":   "SHA-1",
	"sha256": "SHA-256",
	"sha384": "SHA-384",
	"sha512": "SHA-512",
}

// DigestAlgorithmName returns the Library of Congress name of a digest
// algorithm like "sha256", or the algorithm itself if it has none.
func DigestAlgorithmName(digestAlg string) string {
	key := strings.ReplaceAll(strings.ToLower(digestAlg), "-", "")
	if name, ok := locCryptoFunctions[key]; ok {
		return name
	}
	return digestAlg
}

// NewFixity creates a fixity element for an object. Since PREMIS 3 the
// algorithm carries its authority.
func NewFixity(version, digestAlg, checksum, originator string) *Element {
	key := strings.ReplaceAll(strings.ToLower(digestAlg), "-", "")
	algorithm := NewLeaf("message_digest_algorithm", DigestAlgorithmName(digestAlg))
	if _, ok := locCryptoFunctions[key]; ok && version == Version30 {
		algorithm.SetAttr("authority", "cryptographicHashFunctions")
		algorithm.SetAttr("authority_uri", locCryptoAuthorityURI)
		algorithm.SetAttr("value_uri", "https://id.loc.gov/vocabulary/preservation/cryptographicHashFunctions/"+key)
	}
	fixity := NewElement("fixity", algorithm, NewLeaf("message_digest", checksum))
	if originator != "" {
		fixity.Append(NewLeaf("message_digest_originator", originator))
	}
	return fixity
}
