package playlists

// Playlist models a persisted playlist row. The owner is set at creation
// and never changes.
type Playlist struct {
	ID      string `gorm:"column:id;primaryKey;size:50;not null"`
	Name    string `gorm:"column:name;size:190;not null"`
	OwnerID string `gorm:"column:owner;size:50;not null;index"`
}

// TableName provides the explicit table binding for GORM.
func (Playlist) TableName() string {
	return "playlists"
}

// PlaylistSong associates a song with a playlist. Rows are insertion
// ordered for display only.
type PlaylistSong struct {
	ID         int64  `gorm:"column:id;primaryKey;autoIncrement"`
	PlaylistID string `gorm:"column:playlist_id;size:50;not null;index"`
	SongID     string `gorm:"column:song_id;size:50;not null"`
}

// TableName provides the explicit table binding for GORM.
func (PlaylistSong) TableName() string {
	return "playlist_songs"
}

// PlaylistSummary is the listing projection joined with the owner's
// username.
type PlaylistSummary struct {
	ID       string
	Name     string
	Username string
}

// SongEntry is the reduced song projection returned for playlist contents.
type SongEntry struct {
	ID        string
	Title     string
	Performer string
}
