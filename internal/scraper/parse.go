package scraper

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/models"
)

// PlaceholderImage stands in for missing avatars and thumbnails
const PlaceholderImage = "https://ui-avatars.com/api/?name=TikTok&background=667eea&color=fff&size=128"

// apiResponse is the tikwm envelope. A missing code counts as success.
type apiResponse struct {
	Code *int     `json:"code"`
	Msg  string   `json:"msg"`
	Data *rawData `json:"data"`
}

type rawData struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Duration      number    `json:"duration"`
	Cover         string    `json:"cover"`
	OriginCover   string    `json:"origin_cover"`
	Play          string    `json:"play"`
	HDPlay        string    `json:"hdplay"`
	Images        []string  `json:"images"`
	MusicInfo     rawMusic  `json:"music_info"`
	Author        rawAuthor `json:"author"`
	DiggCount     count     `json:"digg_count"`
	CommentCount  count     `json:"comment_count"`
	ShareCount    count     `json:"share_count"`
	PlayCount     count     `json:"play_count"`
	DownloadCount count     `json:"download_count"`
	CreateTime    number    `json:"create_time"`
}

type rawMusic struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Play   string `json:"play"`
	Cover  string `json:"cover"`
}

type rawAuthor struct {
	UniqueID      string `json:"unique_id"`
	Nickname      string `json:"nickname"`
	Avatar        string `json:"avatar"`
	Verified      bool   `json:"verified"`
	FollowerCount count  `json:"follower_count"`
}

// number accepts a JSON number or a numeric string
type number float64

func (n *number) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		// not numeric, treat as absent
		*n = 0
		return nil
	}
	*n = number(f)
	return nil
}

// count is a counter as sent by the backend: usually a number, sometimes an
// already formatted string which is passed through untouched.
type count struct {
	n   int64
	str string
}

func (c *count) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &c.str)
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return nil
	}
	c.n = int64(math.Floor(f))
	return nil
}

func (c count) String() string {
	if c.str != "" {
		return c.str
	}
	return FormatCount(c.n)
}

// Parse turns a raw tikwm response body into a MediaResult
func Parse(body []byte, now time.Time) (*models.MediaResult, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &Error{Kind: ErrUpstream, Message: "Invalid response from TikTok API", Err: err}
	}
	return normalize(&resp, now)
}

func normalize(resp *apiResponse, now time.Time) (*models.MediaResult, error) {
	if resp.Code != nil && *resp.Code != 0 {
		msg := resp.Msg
		if msg == "" {
			msg = "TikTok API returned an error"
		}
		return nil, newError(ErrUpstream, msg)
	}
	if resp.Data == nil {
		return nil, newError(ErrUpstream, "No media data found in TikTok response")
	}

	d := resp.Data
	isPhoto := len(d.Images) > 0

	videos := make([]models.MediaLink, 0, 2)
	if d.HDPlay != "" {
		videos = append(videos, models.MediaLink{Type: "hd", URL: d.HDPlay, Label: "HD Quality"})
	}
	if d.Play != "" {
		videos = append(videos, models.MediaLink{Type: "standard", URL: d.Play, Label: "Standard Quality"})
	}
	if len(videos) == 0 && !isPhoto {
		return nil, newError(ErrNoMedia, "No download links found for this video")
	}

	audio := []models.MediaLink{}
	if d.MusicInfo.Play != "" {
		audio = append(audio, models.MediaLink{Type: "audio", URL: d.MusicInfo.Play, Label: "Audio Only"})
	}

	images := []models.ImageLink{}
	if isPhoto {
		for i, img := range d.Images {
			images = append(images, models.ImageLink{ID: i + 1, URL: img})
		}
	}

	title := strings.TrimSpace(d.Title)
	if title == "" {
		title = "TikTok Video"
	}
	duration := int(d.Duration)

	created := int64(d.CreateTime)
	if created == 0 {
		created = now.Unix()
	}

	return &models.MediaResult{
		ID:          d.ID,
		Title:       title,
		Description: d.Title,
		Duration:    duration,
		Thumbnail:   firstNonEmpty(d.Cover, d.OriginCover, PlaceholderImage),
		Filename:    Filename(title, duration),
		Author: models.Author{
			ID:        firstNonEmpty(d.Author.UniqueID, "unknown"),
			Name:      firstNonEmpty(d.Author.Nickname, "Unknown User"),
			Username:  firstNonEmpty(d.Author.UniqueID, "unknown"),
			Avatar:    firstNonEmpty(d.Author.Avatar, PlaceholderImage),
			Verified:  d.Author.Verified,
			Followers: d.Author.FollowerCount.String(),
		},
		Statistics: models.Statistics{
			Likes:     d.DiggCount.String(),
			Comments:  d.CommentCount.String(),
			Shares:    d.ShareCount.String(),
			Views:     d.PlayCount.String(),
			Downloads: d.DownloadCount.String(),
		},
		Music: models.Music{
			Title:  firstNonEmpty(d.MusicInfo.Title, "Original Sound"),
			Author: firstNonEmpty(d.MusicInfo.Author, "Unknown Artist"),
			URL:    d.MusicInfo.Play,
			Cover:  d.MusicInfo.Cover,
		},
		DownloadLinks: models.DownloadLinks{
			Video:  videos,
			Audio:  audio,
			Images: images,
		},
		CreatedTime: created,
		IsPhoto:     isPhoto,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
