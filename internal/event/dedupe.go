package event

import (
	"fmt"
	"sort"
)

// Dedupe collapses records that share a Key. One winner per group: the higher
// confidence, then the more complete record, then a stable fingerprint so the
// result does not depend on input order. Output is sorted with Sort.
func Dedupe(records []*Record) []*Record {
	winners := make(map[string]*Record, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		key := r.Key()
		current, ok := winners[key]
		if !ok || better(r, current) {
			winners[key] = r
		}
	}

	out := make([]*Record, 0, len(winners))
	for _, r := range winners {
		r.ID = GenerateID(r.Key())
		out = append(out, r)
	}
	Sort(out)
	return out
}

// better reports whether a should replace b as a group's winner
func better(a, b *Record) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if ca, cb := a.Completeness(), b.Completeness(); ca != cb {
		return ca > cb
	}
	return fingerprint(a) < fingerprint(b)
}

func fingerprint(r *Record) string {
	end := ""
	if r.End != nil {
		end = r.End.String()
	}
	return fmt.Sprintf("%s\x00%s\x00%s\x00%s\x00%s\x00%s\x00%s\x00%s\x00%t",
		r.Title, r.Start.String(), end, r.LocationName, r.Address, r.URL, r.RawDateText, r.Strategy, r.DateAmbiguous)
}

// Sort orders records by start (unknown last), then normalized title, then URL
func Sort(records []*Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Start.IsUnknown() != b.Start.IsUnknown() {
			return !a.Start.IsUnknown()
		}
		if !a.Start.IsUnknown() && !a.Start.Time().Equal(b.Start.Time()) {
			return a.Start.Time().Before(b.Start.Time())
		}
		ta, tb := NormalizeTitle(a.Title), NormalizeTitle(b.Title)
		if ta != tb {
			return ta < tb
		}
		if a.URL != b.URL {
			return a.URL < b.URL
		}
		return fingerprint(a) < fingerprint(b)
	})
}
