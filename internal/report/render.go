package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/shelling/mogilefs-utils/internal/checker"
)

// Render writes the full human-readable report: per-path observations,
// findings, warnings, then the raw tracker metadata for inspection.
func (r *Report) Render(w io.Writer) {
	r.renderPaths(w)
	r.renderFindings(w)
	r.renderWarnings(w)
	r.renderMetadata(w)
}

func (r *Report) renderPaths(w io.Writer) {
	if len(r.Results) == 0 {
		return
	}
	fmt.Fprintf(w, "Checked %d path(s) with policy %s:\n", len(r.Results), r.Policy)
	for i, res := range r.Results {
		fmt.Fprintf(w, "  %d. %s\n", i+1, res.URL)
		if r.Policy == checker.PolicyPrint {
			continue
		}
		fmt.Fprintf(w, "     status: %s\n", valueOr(res.Status, "(none)"))
		if res.LastModified != "" {
			fmt.Fprintf(w, "     last-modified: %s\n", res.LastModified)
		}
		if res.HasLength {
			fmt.Fprintf(w, "     length: %d\n", res.Length)
		}
		if res.Hash != "" {
			fmt.Fprintf(w, "     %s: %s\n", r.Digest, res.Hash)
		}
	}
	if r.RefURL != "" {
		fmt.Fprintf(w, "Hash comparison basis: first hashed path %s (%s %s)\n",
			r.RefURL, r.Digest, r.RefHash)
	}
	fmt.Fprintln(w)
}

func (r *Report) renderFindings(w io.Writer) {
	if len(r.Results) == 0 {
		return
	}
	if len(r.Findings) == 0 {
		fmt.Fprintf(w, "No discrepancies found.\n\n")
		return
	}
	fmt.Fprintf(w, "Findings:\n")
	for _, f := range r.Findings {
		fmt.Fprintf(w, "  %s: %s", f.Kind, f.URL)
		if f.Detail != "" {
			fmt.Fprintf(w, " (%s)", f.Detail)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
}

func (r *Report) renderWarnings(w io.Writer) {
	if len(r.Desc.Paths) == 0 {
		fmt.Fprintf(w, "Warning: no paths found for this file; the tracker knows of no copies.\n\n")
	}
	if r.Desc.Record == nil {
		fmt.Fprintf(w, "Warning: no authoritative record for this file; it may be deleted "+
			"or was never finalized. Check the queue groups below for pending operations.\n\n")
	}
	if r.LengthUnverifiable() {
		fmt.Fprintf(w, "Note: observed lengths could not be verified; "+
			"the record carries no length.\n\n")
	}
}

func (r *Report) renderMetadata(w io.Writer) {
	if len(r.Desc.Groups) > 0 {
		fmt.Fprintf(w, "Tracker metadata:\n")
		for _, group := range sortedKeys(r.Desc.Groups) {
			fmt.Fprintf(w, "  %s:\n", group)
			fields := r.Desc.Groups[group]
			for _, field := range sortedKeys(fields) {
				name := field
				if name == "" {
					name = "(value)"
				}
				fmt.Fprintf(w, "    %s = %s\n", name, fields[field])
			}
		}
		fmt.Fprintln(w)
	}

	if len(r.Desc.Paths) > 0 {
		fmt.Fprintf(w, "Paths:\n")
		for _, p := range r.Desc.Paths {
			fmt.Fprintf(w, "  %s\n", p)
		}
		fmt.Fprintln(w)
	}

	if r.Desc.Checksum != "" {
		fmt.Fprintf(w, "Tracker-stored checksum: %s\n", r.Desc.Checksum)
	}
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
