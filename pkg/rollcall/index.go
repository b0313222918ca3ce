package rollcall

import "time"

// Entry groups everything indexed under one normalized roll-call identifier.
// Summary is nil when no metadata record normalized to this key; such
// entries are kept in the index so their votes and orientations remain
// visible to reporting, but downstream validation drops them.
type Entry struct {
	// ID is the normalized identifier, RawID the identifier as it first
	// appeared in the source that created this entry.
	ID    string
	RawID string

	Summary      *Summary
	Detail       *Detail
	Votes        []Vote
	Orientations []Orientation

	// Subjects holds the distinct theme names of the affected propositions,
	// de-duplicated in source order.
	Subjects []string
}

// HasDirective reports whether at least one orientation carries a non-empty
// directive value.
func (entry *Entry) HasDirective() bool {
	for _, o := range entry.Orientations {
		if o.OrientacaoVoto != "" {
			return true
		}
	}
	return false
}

// Index joins one year's collections, keyed by normalized identifier.
// Keys preserves entry creation order so iteration stays deterministic.
type Index struct {
	Year      int
	Entries   map[string]*Entry
	Keys      []string
	Malformed int
}

// Lookup finds an entry by exact identifier first, then by its normalized
// form, mirroring how the sources cross-reference the two identifier shapes.
func (index *Index) Lookup(id string) (*Entry, bool) {
	if entry, ok := index.Entries[id]; ok {
		return entry, true
	}
	base := NormalizeID(id)
	if base != "" && base != id {
		if entry, ok := index.Entries[base]; ok {
			return entry, true
		}
	}
	return nil, false
}

// BuildIndex joins one year's raw collections into a per-roll-call index.
// Every record identifier is normalized before insertion, so a suffixed and
// a bare identifier referring to the same roll call land on one entry; the
// first record per normalized key wins. Records without an identifier, and
// summaries whose date is present but unparseable, are skipped and counted
// in Malformed. BuildIndex performs no I/O.
func BuildIndex(data *YearData) *Index {
	index := &Index{
		Year:    data.Year,
		Entries: make(map[string]*Entry),
	}

	themes := indexSubjects(data.Subjects, index)
	details := indexDetails(data.Details, index)
	votes := indexVoteGroups(data.Votes, index)
	orientations := indexOrientationGroups(data.Orientations, index)

	for _, s := range data.Summaries {
		if s.ID == "" {
			index.Malformed++
			continue
		}
		if !validDate(s.Data) {
			index.Malformed++
			continue
		}
		key := NormalizeID(s.ID)
		if existing, ok := index.Entries[key]; ok && existing.Summary != nil {
			continue
		}
		summary := s
		entry := &Entry{
			ID:           key,
			RawID:        s.ID,
			Summary:      &summary,
			Detail:       lookupDetail(s.ID, details),
			Votes:        lookupVotes(s.ID, votes),
			Orientations: lookupOrientations(s.ID, orientations),
		}
		entry.Subjects = subjectsFor(entry.Detail, themes)
		index.Entries[key] = entry
		index.Keys = append(index.Keys, key)
	}

	// Votes and orientations whose key never appeared in the metadata
	// source still get an entry of their own.
	for _, g := range data.Votes {
		if g.ID == "" || len(g.Votes) == 0 {
			continue
		}
		key := NormalizeID(g.ID)
		if _, ok := index.Entries[key]; ok {
			continue
		}
		index.Entries[key] = &Entry{
			ID:           key,
			RawID:        g.ID,
			Detail:       lookupDetail(g.ID, details),
			Votes:        g.Votes,
			Orientations: lookupOrientations(g.ID, orientations),
		}
		index.Keys = append(index.Keys, key)
	}
	for _, g := range data.Orientations {
		if g.ID == "" || len(g.Orientations) == 0 {
			continue
		}
		key := NormalizeID(g.ID)
		if _, ok := index.Entries[key]; ok {
			continue
		}
		index.Entries[key] = &Entry{
			ID:           key,
			RawID:        g.ID,
			Detail:       lookupDetail(g.ID, details),
			Orientations: g.Orientations,
		}
		index.Keys = append(index.Keys, key)
	}

	return index
}

// indexSubjects maps proposition identifiers to their themes.
func indexSubjects(records []SubjectRecord, index *Index) map[string][]Subject {
	themes := make(map[string][]Subject)
	for _, record := range records {
		if record.ID == "" {
			index.Malformed++
			continue
		}
		if len(record.Temas) == 0 {
			continue
		}
		if _, ok := themes[string(record.ID)]; !ok {
			themes[string(record.ID)] = record.Temas
		}
	}
	return themes
}

// indexDetails keys detail records by their raw identifier and, when it
// differs, by the normalized one. The first record per normalized key wins.
func indexDetails(records []Detail, index *Index) map[string]*Detail {
	details := make(map[string]*Detail)
	for i := range records {
		record := &records[i]
		if record.ID == "" {
			index.Malformed++
			continue
		}
		details[record.ID] = record
		base := NormalizeID(record.ID)
		if base != "" && base != record.ID {
			if _, ok := details[base]; !ok {
				details[base] = record
			}
		}
	}
	return details
}

func indexVoteGroups(groups []VoteGroup, index *Index) map[string][]Vote {
	votes := make(map[string][]Vote)
	for _, g := range groups {
		if g.ID == "" {
			index.Malformed++
			continue
		}
		if len(g.Votes) == 0 {
			continue
		}
		votes[g.ID] = g.Votes
		base := NormalizeID(g.ID)
		if base != "" && base != g.ID {
			if _, ok := votes[base]; !ok {
				votes[base] = g.Votes
			}
		}
	}
	return votes
}

func indexOrientationGroups(groups []OrientationGroup, index *Index) map[string][]Orientation {
	orientations := make(map[string][]Orientation)
	for _, g := range groups {
		if g.ID == "" {
			index.Malformed++
			continue
		}
		if len(g.Orientations) == 0 {
			continue
		}
		orientations[g.ID] = g.Orientations
		base := NormalizeID(g.ID)
		if base != "" && base != g.ID {
			if _, ok := orientations[base]; !ok {
				orientations[base] = g.Orientations
			}
		}
	}
	return orientations
}

// lookupDetail tries the exact identifier first, then the normalized form.
func lookupDetail(id string, details map[string]*Detail) *Detail {
	if d, ok := details[id]; ok {
		return d
	}
	base := NormalizeID(id)
	if base != "" && base != id {
		if d, ok := details[base]; ok {
			return d
		}
	}
	return nil
}

func lookupVotes(id string, votes map[string][]Vote) []Vote {
	if v, ok := votes[id]; ok {
		return v
	}
	base := NormalizeID(id)
	if base != "" && base != id {
		if v, ok := votes[base]; ok {
			return v
		}
	}
	return nil
}

func lookupOrientations(id string, orientations map[string][]Orientation) []Orientation {
	if o, ok := orientations[id]; ok {
		return o
	}
	base := NormalizeID(id)
	if base != "" && base != id {
		if o, ok := orientations[base]; ok {
			return o
		}
	}
	return nil
}

// subjectsFor collects the distinct theme names of the detail's affected
// propositions, preserving first-seen order.
func subjectsFor(detail *Detail, themes map[string][]Subject) []string {
	if detail == nil {
		return nil
	}
	var names []string
	seen := make(map[string]bool)
	for _, prop := range detail.ProposicoesAfetadas {
		for _, subject := range themes[string(prop.ID)] {
			if subject.Tema == "" || seen[subject.Tema] {
				continue
			}
			seen[subject.Tema] = true
			names = append(names, subject.Tema)
		}
	}
	return names
}

// validDate accepts an empty date or one in the chamber's YYYY-MM-DD form.
func validDate(value string) bool {
	if value == "" {
		return true
	}
	_, err := time.Parse("2006-01-02", value)
	return err == nil
}
