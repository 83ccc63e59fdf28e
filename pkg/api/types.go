package api

// APIResponse is the envelope every JSON endpoint answers with.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind   string
	Port   int
	APIKey string // empty disables authentication

	// MaxUploadBytes bounds POSTed datalogs; 0 uses DefaultMaxUploadBytes.
	MaxUploadBytes int64
}

// DefaultMaxUploadBytes matches the largest payload an OPDL container can
// describe.
const DefaultMaxUploadBytes = 1 << 24

const (
	defaultFrameLimit = 100
	maxFrameLimit     = 10000
)

// ListResponse is the payload of GET /datalogs.
type ListResponse struct {
	Datalogs interface{} `json:"datalogs"`
	Count    int         `json:"count"`
}

// FramesResponse is the payload of GET /datalogs/{id}/frames.
type FramesResponse struct {
	ID     string      `json:"id"`
	From   int         `json:"from"`
	Total  int         `json:"total"`
	Frames interface{} `json:"frames"`
}
