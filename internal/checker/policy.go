package checker

import (
	"crypto/md5"  //nolint:gosec // matches tracker-stored checksums
	"crypto/sha1" //nolint:gosec // offered for operator convenience
	"fmt"
	"hash"

	"github.com/zeebo/blake3"
)

// Policy selects how each physical copy is checked.
type Policy int

const (
	// PolicyPrint records URLs without touching the network.
	PolicyPrint Policy = iota
	// PolicyStat issues a HEAD request per copy.
	PolicyStat
	// PolicyFetch retrieves and hashes each copy's full body.
	PolicyFetch
)

var policyNames = map[Policy]string{
	PolicyPrint: "print",
	PolicyStat:  "stat",
	PolicyFetch: "fetch",
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy maps a --paths flag value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "print":
		return PolicyPrint, nil
	case "stat":
		return PolicyStat, nil
	case "fetch":
		return PolicyFetch, nil
	default:
		return 0, fmt.Errorf("invalid paths policy %q (use print, stat or fetch)", s)
	}
}

// Digest selects the hash computed over fetched bodies.
type Digest int

const (
	// DigestMD5 matches the checksums MogileFS trackers store.
	DigestMD5 Digest = iota
	DigestSHA1
	DigestBLAKE3
)

var digestNames = map[Digest]string{
	DigestMD5:    "md5",
	DigestSHA1:   "sha1",
	DigestBLAKE3: "blake3",
}

func (d Digest) String() string {
	if name, ok := digestNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Digest(%d)", int(d))
}

// ParseDigest maps a --digest flag value to a Digest.
func ParseDigest(s string) (Digest, error) {
	switch s {
	case "md5":
		return DigestMD5, nil
	case "sha1":
		return DigestSHA1, nil
	case "blake3":
		return DigestBLAKE3, nil
	default:
		return 0, fmt.Errorf("invalid digest %q (use md5, sha1 or blake3)", s)
	}
}

// New returns a fresh hash for one body.
func (d Digest) New() hash.Hash {
	switch d {
	case DigestSHA1:
		return sha1.New() //nolint:gosec // integrity check, not authentication
	case DigestBLAKE3:
		return blake3.New()
	default:
		return md5.New() //nolint:gosec // integrity check, not authentication
	}
}
