// Package model defines the row types shared by the gateway, services and
// handlers.
//
// Each struct mirrors one table; field comments name the backing column when
// it is not obvious. There is no ORM: the column names in the sqlstore
// statements are the schema contract.
package model

// DefaultProjectImage is stored for projects created without an image.
const DefaultProjectImage = "images/default.png"

// Category groups projects. Order is unique across the table and new
// categories are appended at max(order)+1.
type Category struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Order       int    `json:"order"` // category_order
}

// Project is a top-level content item containing ordered videos.
type Project struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImagePath   string `json:"imagePath"` // project_image
	CategoryID  int64  `json:"categoryId"`
}

// Video belongs to exactly one project. Order ascending is the playback
// sequence and order 1 is the project's default video.
type Video struct {
	ID        int64  `json:"id"`
	ProjectID int64  `json:"projectId"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Order     int    `json:"order"` // video_order
}

// Direction selects the neighbor used by the reorder operations.
type Direction string

const (
	DirectionUp   Direction = "up"   // towards lower order values
	DirectionDown Direction = "down" // towards higher order values
)

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}
