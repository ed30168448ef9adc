package catalog

// Album models a persisted album row. CoverURL stays empty until a cover
// image is uploaded.
type Album struct {
	ID       string `gorm:"column:id;primaryKey;size:50;not null"`
	Name     string `gorm:"column:name;size:190;not null"`
	Year     int    `gorm:"column:year;not null"`
	CoverURL string `gorm:"column:cover_url;size:512"`
}

// TableName provides the explicit table binding for GORM.
func (Album) TableName() string {
	return "albums"
}

// Song models a persisted song row. AlbumID is nullable: a song may exist
// outside any album.
type Song struct {
	ID        string  `gorm:"column:id;primaryKey;size:50;not null"`
	Title     string  `gorm:"column:title;size:190;not null"`
	Year      int     `gorm:"column:year;not null"`
	Performer string  `gorm:"column:performer;size:190;not null"`
	Genre     string  `gorm:"column:genre;size:190;not null"`
	Duration  *int    `gorm:"column:duration"`
	AlbumID   *string `gorm:"column:album_id;size:50;index"`
}

// TableName provides the explicit table binding for GORM.
func (Song) TableName() string {
	return "songs"
}

// AlbumLike associates a user with an album they liked. At most one row
// per (user, album) pair, enforced by the toggle's check-then-act sequence.
type AlbumLike struct {
	ID      string `gorm:"column:id;primaryKey;size:50;not null"`
	UserID  string `gorm:"column:user_id;size:50;not null;index:idx_likes_album_user,priority:2"`
	AlbumID string `gorm:"column:album_id;size:50;not null;index:idx_likes_album_user,priority:1"`
}

// TableName provides the explicit table binding for GORM.
func (AlbumLike) TableName() string {
	return "user_album_likes"
}

// AlbumPayload carries the mutable album fields supplied by clients.
type AlbumPayload struct {
	Name string
	Year int
}

// SongPayload carries the mutable song fields supplied by clients.
type SongPayload struct {
	Title     string
	Year      int
	Performer string
	Genre     string
	Duration  *int
	AlbumID   *string
}

// SongSummary is the reduced projection used by song listings.
type SongSummary struct {
	ID        string
	Title     string
	Performer string
}

// LikeCount reports an album's like total and whether it was served from
// the cache rather than the store.
type LikeCount struct {
	Count     int
	FromCache bool
}
