package model

// Planche is one sheet-music entry: a set of page files (images or PDFs)
// plus optional audio recordings, attached to a sub-category.
type Planche struct {
	ID            string   `json:"id"`
	SubCategoryID string   `json:"sub_category_id"`
	Title         string   `json:"title"`
	Files         []string `json:"files"`
	AudioFiles    []string `json:"audio_files"`
	UploadedByID  string   `json:"uploaded_by_id"`
	Ctime         int64    `json:"ctime"`
	Mtime         int64    `json:"mtime"`

	SubCategoryName string      `json:"sub_category_name,omitempty"`
	CategoryID      string      `json:"category_id,omitempty"`
	CategoryName    string      `json:"category_name,omitempty"`
	UploadedBy      *PublicUser `json:"uploaded_by,omitempty"`
}
