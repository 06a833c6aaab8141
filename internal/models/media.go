package models

// Media types
const (
	MediaTypeVideo  = "video"
	MediaTypePhotos = "photos"
)

// MediaResult is the normalized answer returned by the download endpoint
type MediaResult struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Duration      int           `json:"duration"`
	Thumbnail     string        `json:"thumbnail"`
	Filename      string        `json:"filename"`
	Author        Author        `json:"author"`
	Statistics    Statistics    `json:"statistics"`
	Music         Music         `json:"music"`
	DownloadLinks DownloadLinks `json:"download_links"`
	CreatedTime   int64         `json:"created_time"`
	IsPhoto       bool          `json:"is_photo"`
}

// Type returns "photos" for photo posts and "video" otherwise
func (m *MediaResult) Type() string {
	if m.IsPhoto {
		return MediaTypePhotos
	}
	return MediaTypeVideo
}

type Author struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	Avatar    string `json:"avatar"`
	Verified  bool   `json:"verified"`
	Followers string `json:"followers"`
}

type Statistics struct {
	Likes     string `json:"likes"`
	Comments  string `json:"comments"`
	Shares    string `json:"shares"`
	Views     string `json:"views"`
	Downloads string `json:"downloads"`
}

type Music struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	URL    string `json:"url"`
	Cover  string `json:"cover"`
}

type DownloadLinks struct {
	Video  []MediaLink `json:"video"`
	Audio  []MediaLink `json:"audio"`
	Images []ImageLink `json:"images"`
}

// MediaLink is a video quality or audio track
type MediaLink struct {
	Type  string `json:"type"`
	URL   string `json:"url"`
	Label string `json:"label"`
}

// ImageLink is one slide of a photo post, numbered from 1
type ImageLink struct {
	ID  int    `json:"id"`
	URL string `json:"url"`
}
