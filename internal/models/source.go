package models

// PlaylistItem is one item of a source playlist page.
type PlaylistItem struct {
	VideoID      string
	Title        string
	Description  string
	Thumbnail    string // default thumbnail URL, "" when the source has none
	Position     int64
	ChannelTitle string
	ChannelID    string
}

// PlaylistPage is a single page of playlist items.
//
// NextPageToken is empty on the last page.
type PlaylistPage struct {
	Items         []PlaylistItem
	NextPageToken string
}

// IDs returns the video ids of the page in source order.
func (p *PlaylistPage) IDs() []string {
	ids := make([]string, 0, len(p.Items))
	for _, item := range p.Items {
		ids = append(ids, item.VideoID)
	}
	return ids
}

// Comment is a top-level comment of a video.
type Comment struct {
	Author string
	Text   string
}

// VideoDetails carries the unparsed content details of a video.
type VideoDetails struct {
	VideoID     string
	Duration    string // ISO-8601 duration, e.g. PT4M13S
	PublishedAt string // RFC 3339 timestamp
}

// Track is one inferred track. Any field may be missing.
type Track struct {
	Title     *string
	Artist    *string
	Timestamp *string
}

// IsEmpty reports whether the track carries no field at all.
func (t Track) IsEmpty() bool {
	return t.Title == nil && t.Artist == nil && t.Timestamp == nil
}

// Metadata is the structured result of enrichment. Nil slices mean the field was absent.
type Metadata struct {
	Genres []string
	Tracks []Track
}

// IsEmpty reports whether neither genres nor tracks were inferred.
func (m *Metadata) IsEmpty() bool {
	return m == nil || (len(m.Genres) == 0 && len(m.Tracks) == 0)
}
