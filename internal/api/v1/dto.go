package api

import (
	"encoding/json"
	"time"

	"github.com/k3a/html2text"

	"github.com/civicvoice/hearing-go/internal/datastore/entities"
)

// Wire representations of the domain entities. Enums serialize through
// the explicit codecs on the entity types; HTML content fields are
// passed through unsanitized (sanitization is the renderer's job) but
// list rows carry a plain-text excerpt for previews.

const excerptLength = 240

type hearingListItem struct {
	ID            string              `json:"id"`
	Title         string              `json:"title"`
	Abstract      string              `json:"abstract"`
	Excerpt       string              `json:"excerpt"`
	Borough       string              `json:"borough"`
	NComments     int                 `json:"n_comments"`
	Commenting    entities.Commenting `json:"commenting"`
	OpenAt        time.Time           `json:"open_at"`
	CloseAt       time.Time           `json:"close_at"`
	Closed        bool                `json:"closed"`
	Published     bool                `json:"published"`
	CreatedAt     time.Time           `json:"created_at"`
	ServicemapURL string              `json:"servicemap_url"`
}

type hearingDetail struct {
	hearingListItem
	Latitude  *float64        `json:"latitude"`
	Longitude *float64        `json:"longitude"`
	GeoJSON   json.RawMessage `json:"geojson"`
	Labels    []string        `json:"labels"`
	Images    []imageItem     `json:"images"`
	Sections  []sectionItem   `json:"sections"`
	Comments  []commentItem   `json:"comments"`
	Followers int             `json:"n_followers"`
}

type sectionItem struct {
	ID         string               `json:"id"`
	HearingID  string               `json:"hearing"`
	Type       entities.SectionType `json:"type"`
	Ordering   int                  `json:"ordering"`
	Title      string               `json:"title"`
	Abstract   string               `json:"abstract"`
	Content    string               `json:"content"`
	NComments  int                  `json:"n_comments"`
	Commenting entities.Commenting  `json:"commenting"`
	CreatedAt  time.Time            `json:"created_at"`
	Images     []imageItem          `json:"images,omitempty"`
}

type commentItem struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	AuthorName string    `json:"author_name"`
	NVotes     int       `json:"n_votes"`
	CreatedAt  time.Time `json:"created_at"`
}

type imageItem struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Caption  string `json:"caption"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Ordering int    `json:"ordering"`
}

type mapItem struct {
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	GeoJSON json.RawMessage `json:"geojson"`
}

func toHearingListItem(h *entities.Hearing, now time.Time) hearingListItem {
	return hearingListItem{
		ID:            h.ID,
		Title:         h.Title,
		Abstract:      h.Abstract,
		Excerpt:       excerpt(h.Abstract),
		Borough:       h.Borough,
		NComments:     h.NComments,
		Commenting:    h.Commenting,
		OpenAt:        h.OpenAt,
		CloseAt:       h.CloseAt,
		Closed:        h.Closed(now),
		Published:     h.Published,
		CreatedAt:     h.CreatedAt,
		ServicemapURL: h.ServicemapURL,
	}
}

func toHearingDetail(h *entities.Hearing, followers int, now time.Time) hearingDetail {
	detail := hearingDetail{
		hearingListItem: toHearingListItem(h, now),
		Latitude:        h.Latitude,
		Longitude:       h.Longitude,
		GeoJSON:         h.GeoJSON,
		Labels:          make([]string, 0, len(h.Labels)),
		Images:          make([]imageItem, 0, len(h.Images)),
		Sections:        make([]sectionItem, 0, len(h.Sections)),
		Comments:        make([]commentItem, 0, len(h.Comments)),
		Followers:       followers,
	}
	for _, label := range h.Labels {
		detail.Labels = append(detail.Labels, label.Label)
	}
	for _, image := range h.Images {
		detail.Images = append(detail.Images, toHearingImageItem(image))
	}
	for _, section := range h.Sections {
		detail.Sections = append(detail.Sections, toSectionItem(section))
	}
	for _, comment := range h.Comments {
		detail.Comments = append(detail.Comments, toCommentItem(comment))
	}
	return detail
}

func toSectionItem(s *entities.Section) sectionItem {
	item := sectionItem{
		ID:         s.ID,
		HearingID:  s.HearingID,
		Type:       s.Type,
		Ordering:   s.Ordering,
		Title:      s.Title,
		Abstract:   s.Abstract,
		Content:    s.Content,
		NComments:  s.NComments,
		Commenting: s.Commenting,
		CreatedAt:  s.CreatedAt,
	}
	for _, image := range s.Images {
		item.Images = append(item.Images, toSectionImageItem(image))
	}
	return item
}

func toCommentItem(c *entities.Comment) commentItem {
	return commentItem{
		ID:         c.ID,
		Title:      c.Title,
		Content:    c.Content,
		AuthorName: c.AuthorName,
		NVotes:     c.NVotes,
		CreatedAt:  c.CreatedAt,
	}
}

func toHearingImageItem(i *entities.HearingImage) imageItem {
	return imageItem{
		URL: i.Image, Title: i.Title, Caption: i.Caption,
		Width: i.Width, Height: i.Height, Ordering: i.Ordering,
	}
}

func toSectionImageItem(i *entities.SectionImage) imageItem {
	return imageItem{
		URL: i.Image, Title: i.Title, Caption: i.Caption,
		Width: i.Width, Height: i.Height, Ordering: i.Ordering,
	}
}

// excerpt renders HTML to plain text and truncates it for list rows.
func excerpt(html string) string {
	text := html2text.HTML2Text(html)
	if len(text) > excerptLength {
		text = text[:excerptLength]
	}
	return text
}
