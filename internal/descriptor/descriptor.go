// Package descriptor turns the flat field map returned by a tracker
// file_debug call into typed records.
//
// The tracker encodes nested structure in key names: devpath_* keys carry
// physical copy URLs, and every other key is <group>_<field> where the
// group is a table or queue name (fid, tempfile, replqueue, delqueue,
// rebqueue, fsckqueue).
package descriptor

import (
	"sort"
	"strconv"
	"strings"
)

const pathPrefix = "devpath_"

// Record is the typed view of the fid group: the closed, authoritative
// bookkeeping entry for a file. Absence means the file was deleted or
// never finalized.
type Record struct {
	FID       int64
	Key       string
	DmID      int
	Domain    string
	ClassID   int
	Class     string
	DevCount  int
	Length    int64
	HasLength bool
}

// Descriptor is the parsed form of a file_debug response.
type Descriptor struct {
	// Paths holds physical copy URLs in devpath key order. Duplicates in
	// the response stay duplicates here. May be empty.
	Paths []string

	// Groups maps group name to field name to raw value, for every
	// non-devpath key. Field order is not meaningful.
	Groups map[string]map[string]string

	// Record is the typed fid group, nil when the tracker returned none.
	Record *Record

	// Checksum is the checksum stored by the tracker itself (e.g.
	// "MD5:d41d8..."), distinct from any digest computed over a fetched
	// copy. Empty when the tracker stores none.
	Checksum string
}

// Parse splits a flat field map into paths and grouped records.
func Parse(fields map[string]string) Descriptor {
	d := Descriptor{Groups: make(map[string]map[string]string)}

	var pathKeys []string
	for k, v := range fields {
		if strings.HasPrefix(k, pathPrefix) {
			pathKeys = append(pathKeys, k)
			continue
		}
		group, field, ok := strings.Cut(k, "_")
		if !ok {
			// Bare keys (e.g. "checksum") become a group of their own.
			group, field = k, ""
		}
		if d.Groups[group] == nil {
			d.Groups[group] = make(map[string]string)
		}
		d.Groups[group][field] = v
	}

	// Order paths by devpath suffix, numerically where the tracker used
	// device IDs, so report order is stable across runs.
	sort.Slice(pathKeys, func(i, j int) bool {
		a, b := pathKeys[i][len(pathPrefix):], pathKeys[j][len(pathPrefix):]
		ai, aerr := strconv.Atoi(a)
		bi, berr := strconv.Atoi(b)
		if aerr == nil && berr == nil {
			return ai < bi
		}
		return a < b
	})
	for _, k := range pathKeys {
		d.Paths = append(d.Paths, fields[k])
	}

	if fid, ok := d.Groups["fid"]; ok {
		d.Record = parseRecord(fid)
	}
	if sum, ok := fields["checksum"]; ok {
		d.Checksum = sum
	} else if d.Record != nil {
		d.Checksum = d.Groups["fid"]["checksum"]
	}

	return d
}

func parseRecord(fields map[string]string) *Record {
	rec := &Record{
		Key:    firstOf(fields, "dkey", "key"),
		Domain: fields["domain"],
		Class:  fields["class"],
	}
	rec.FID, _ = strconv.ParseInt(fields["fid"], 10, 64)
	rec.DmID, _ = strconv.Atoi(fields["dmid"])
	rec.ClassID, _ = strconv.Atoi(fields["classid"])
	rec.DevCount, _ = strconv.Atoi(fields["devcount"])
	if raw, ok := fields["length"]; ok {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			rec.Length = n
			rec.HasLength = true
		}
	}
	return rec
}

func firstOf(fields map[string]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := fields[k]; ok {
			return v
		}
	}
	return ""
}
