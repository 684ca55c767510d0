// Package report reconciles path check results against the tracker's
// authoritative record and renders the findings.
package report

import (
	"fmt"

	"github.com/shelling/mogilefs-utils/internal/checker"
	"github.com/shelling/mogilefs-utils/internal/descriptor"
)

// Kind classifies a per-path discrepancy.
type Kind int

const (
	// CopyMissing means the copy answered 404/410.
	CopyMissing Kind = iota
	// HashMismatch means the copy's hash differs from the reference hash.
	HashMismatch
	// LengthMismatch means the observed length differs from the record's.
	LengthMismatch
)

var kindNames = map[Kind]string{
	CopyMissing:    "copy missing",
	HashMismatch:   "hash mismatch",
	LengthMismatch: "length mismatch",
}

func (k Kind) String() string { return kindNames[k] }

// Finding is a single per-path discrepancy. Findings never affect the
// process exit status.
type Finding struct {
	Kind   Kind
	URL    string
	Detail string
}

// Report is the reconciled outcome of one run.
type Report struct {
	Desc    descriptor.Descriptor
	Policy  checker.Policy
	Digest  checker.Digest
	Results []checker.Result

	Findings []Finding

	// RefURL and RefHash identify the comparison basis for hash checks:
	// the first successfully hashed path in discovery order. Empty when
	// nothing was hashed.
	RefURL  string
	RefHash string
}

// Reconcile walks results in discovery order and collects findings.
// Checks are independent per path: a 404 copy is excluded from hash and
// length comparison but no path's failure affects another's.
func Reconcile(
	desc descriptor.Descriptor,
	policy checker.Policy,
	digest checker.Digest,
	results []checker.Result,
) *Report {
	r := &Report{Desc: desc, Policy: policy, Digest: digest, Results: results}

	var wantLength int64
	haveLength := desc.Record != nil && desc.Record.HasLength
	if haveLength {
		wantLength = desc.Record.Length
	}

	for _, res := range results {
		if res.NotFound {
			r.Findings = append(r.Findings, Finding{
				Kind:   CopyMissing,
				URL:    res.URL,
				Detail: res.Status,
			})
			continue
		}

		if policy == checker.PolicyFetch && res.Hash != "" {
			if r.RefHash == "" {
				r.RefHash = res.Hash
				r.RefURL = res.URL
			} else if res.Hash != r.RefHash {
				r.Findings = append(r.Findings, Finding{
					Kind: HashMismatch,
					URL:  res.URL,
					Detail: fmt.Sprintf("%s %s does not match %s from %s",
						digest, res.Hash, r.RefHash, r.RefURL),
				})
			}
		}

		if haveLength && res.HasLength {
			if res.Length != wantLength {
				r.Findings = append(r.Findings, Finding{
					Kind:   LengthMismatch,
					URL:    res.URL,
					Detail: fmt.Sprintf("got %d bytes, record says %d", res.Length, wantLength),
				})
			}
		}
	}

	return r
}

// LengthUnverifiable reports whether copies were measured but no
// authoritative length existed to compare against.
func (r *Report) LengthUnverifiable() bool {
	if r.Desc.Record != nil && r.Desc.Record.HasLength {
		return false
	}
	for _, res := range r.Results {
		if res.HasLength {
			return true
		}
	}
	return false
}
