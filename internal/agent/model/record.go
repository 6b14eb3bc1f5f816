package model

import "strings"

// Field identifies one of the four extractable registration concepts.
type Field string

const (
	FieldNone  Field = ""
	FieldName  Field = "artist_name"
	FieldGenre Field = "primary_genre"
	FieldCity  Field = "city"
	FieldLinks Field = "social_links"
)

// requiredFields is the collection order: name first, links last and optional.
var requiredFields = []Field{FieldName, FieldGenre, FieldCity}

// SocialLink is one platform/URL pair attached to a registration.
type SocialLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// RegistrationRecord is the registration being assembled for one identity.
// Completed may only be true while name, genre and city are all non-empty;
// MarkCompleted enforces that, and Merge never empties a field, so the
// invariant holds across turns.
type RegistrationRecord struct {
	ArtistName   string       `json:"artist_name"`
	PrimaryGenre string       `json:"primary_genre"`
	City         string       `json:"city"`
	SocialLinks  []SocialLink `json:"social_links"`
	TenantID     string       `json:"tenant_id"`
	Completed    bool         `json:"completed"`
}

// RecordDelta is the partial set of fields one extraction call contributed.
type RecordDelta struct {
	ArtistName   string       `json:"artist_name"`
	PrimaryGenre string       `json:"primary_genre"`
	City         string       `json:"city"`
	SocialLinks  []SocialLink `json:"social_links"`
}

// Empty reports whether the delta carries no usable field at all.
func (d RecordDelta) Empty() bool {
	return d.ArtistName == "" && d.PrimaryGenre == "" && d.City == "" && len(d.SocialLinks) == 0
}

// ExtractionResult is the transient outcome of one extraction call.
// It is folded into the record and never persisted on its own.
type ExtractionResult struct {
	Delta           RecordDelta
	ConfidenceNotes []string
	ProviderUsed    string
}

// Empty reports whether nothing has been collected yet.
func (r *RegistrationRecord) Empty() bool {
	return r.ArtistName == "" && r.PrimaryGenre == "" && r.City == "" && len(r.SocialLinks) == 0
}

// Merge folds a delta into the record. Already filled fields are never
// overwritten; social links are appended with platform+URL dedup. Reports
// whether the record changed.
func (r *RegistrationRecord) Merge(delta RecordDelta) bool {
	changed := false
	if r.ArtistName == "" && delta.ArtistName != "" {
		r.ArtistName = delta.ArtistName
		changed = true
	}
	if r.PrimaryGenre == "" && delta.PrimaryGenre != "" {
		r.PrimaryGenre = delta.PrimaryGenre
		changed = true
	}
	if r.City == "" && delta.City != "" {
		r.City = delta.City
		changed = true
	}
	for _, link := range delta.SocialLinks {
		if link.Platform == "" || link.URL == "" {
			continue
		}
		if r.hasLink(link) {
			continue
		}
		r.SocialLinks = append(r.SocialLinks, link)
		changed = true
	}
	return changed
}

func (r *RegistrationRecord) hasLink(link SocialLink) bool {
	for _, l := range r.SocialLinks {
		if strings.EqualFold(l.Platform, link.Platform) && l.URL == link.URL {
			return true
		}
	}
	return false
}

// ReplaceLink swaps the stored link for the platform, appending when the
// platform is new. Update turns replace per platform so a corrected handle
// does not pile up next to the old one. Allocates a fresh slice because
// callers may hold a copy of the previous one.
func (r *RegistrationRecord) ReplaceLink(link SocialLink) {
	if link.Platform == "" || link.URL == "" {
		return
	}
	kept := make([]SocialLink, 0, len(r.SocialLinks)+1)
	for _, l := range r.SocialLinks {
		if !strings.EqualFold(l.Platform, link.Platform) {
			kept = append(kept, l)
		}
	}
	r.SocialLinks = append(kept, link)
}

// Overwrite replaces a single field with a new value regardless of current
// content. Used by the update path and by confirm-stage corrections; an
// empty value clears the field. Clearing a required field drops Completed so
// the collection invariant keeps holding; links are optional and clearing
// them (FieldLinks with an empty value) leaves Completed alone.
func (r *RegistrationRecord) Overwrite(field Field, value string) {
	switch field {
	case FieldName:
		r.ArtistName = value
	case FieldGenre:
		r.PrimaryGenre = value
	case FieldCity:
		r.City = value
	case FieldLinks:
		if value == "" {
			r.SocialLinks = nil
		}
		return
	default:
		return
	}
	if value == "" {
		r.Completed = false
	}
}

// RequiredComplete reports whether name, genre and city are all filled.
func (r *RegistrationRecord) RequiredComplete() bool {
	return r.ArtistName != "" && r.PrimaryGenre != "" && r.City != ""
}

// MarkCompleted sets Completed when the required fields allow it.
// Reports whether the record is now completed.
func (r *RegistrationRecord) MarkCompleted() bool {
	if r.RequiredComplete() {
		r.Completed = true
	}
	return r.Completed
}

// MissingRequired lists the unfilled required fields in collection order.
func (r *RegistrationRecord) MissingRequired() []Field {
	var missing []Field
	for _, f := range requiredFields {
		if r.fieldValue(f) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// NextMissing returns the first unfilled required field, or FieldNone.
func (r *RegistrationRecord) NextMissing() Field {
	for _, f := range requiredFields {
		if r.fieldValue(f) == "" {
			return f
		}
	}
	return FieldNone
}

func (r *RegistrationRecord) fieldValue(f Field) string {
	switch f {
	case FieldName:
		return r.ArtistName
	case FieldGenre:
		return r.PrimaryGenre
	case FieldCity:
		return r.City
	}
	return ""
}
