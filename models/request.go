package models

// MetadataRequest is the query string of GET /metadata.
type MetadataRequest struct {
	// URL is the absolute target URL to inspect. Required.
	URL string `form:"url" binding:"required"`

	// Full additionally emits every meta_* / link_* field.
	// Only the literal "true" enables it.
	Full string `form:"full"`
}

// FullMode reports whether the dynamic fields were requested.
func (r *MetadataRequest) FullMode() bool {
	return r.Full == "true"
}
