package model

type Catalogue struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Ctime       int64  `json:"ctime"`
	Mtime       int64  `json:"mtime"`
}

type Category struct {
	ID          string `json:"id"`
	CatalogueID string `json:"catalogue_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Ctime       int64  `json:"ctime"`
	Mtime       int64  `json:"mtime"`

	SubCategories []SubCategorySummary `json:"sub_categories,omitempty"`
}

type SubCategory struct {
	ID         string `json:"id"`
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	Ctime      int64  `json:"ctime"`
	Mtime      int64  `json:"mtime"`

	CategoryName string           `json:"category_name,omitempty"`
	Planches     []PlancheSummary `json:"planches,omitempty"`
}

type SubCategorySummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type PlancheSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
