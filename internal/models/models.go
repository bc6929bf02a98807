// package models defines the data model for the iVideo client
package models

import "encoding/json"

// UserInfo is the identity record returned by /api/auth/me and embedded in the login response.
type UserInfo struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at,omitempty"`
}

// LoginResponse is the body of a successful POST /api/auth/login.
type LoginResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int      `json:"expires_in"` // seconds
	User        UserInfo `json:"user"`
}

// Project is a user's editing project.
type Project struct {
	ID           int             `json:"id"`
	UserID       int             `json:"user_id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	TimelineData json.RawMessage `json:"timeline_data,omitempty"`
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    string          `json:"updated_at"`
}

// ProjectList is the body of GET /api/users/{id}/projects.
type ProjectList struct {
	UserID        int       `json:"user_id"`
	Projects      []Project `json:"projects"`
	TotalProjects int       `json:"total_projects"`
}

// ProjectDetail is the body of GET /api/projects/{id}.
type ProjectDetail struct {
	ProjectID   int         `json:"project_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	VideoFiles  []VideoFile `json:"video_files"`
	AudioFiles  []any       `json:"audio_files"`
	CreatedAt   string      `json:"created_at"`
	UpdatedAt   string      `json:"updated_at"`
}

// CreateProjectResult is the body of POST /api/projects/create.
type CreateProjectResult struct {
	Message   string `json:"message"`
	ProjectID int    `json:"project_id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
}

// VideoFile is a video attached to a project.
type VideoFile struct {
	ID        int             `json:"id"`
	ProjectID int             `json:"project_id"`
	Filename  string          `json:"filename"`
	FilePath  string          `json:"file_path"`
	Duration  float64         `json:"duration"`
	FileSize  int64           `json:"file_size"`
	VideoInfo json.RawMessage `json:"video_info,omitempty"`
	AddedAt   string          `json:"added_at"`
}

// VideoList is the body of GET /api/projects/{id}/videos.
type VideoList struct {
	ProjectID   int         `json:"project_id"`
	Videos      []VideoFile `json:"videos"`
	TotalVideos int         `json:"total_videos"`
}

// AddVideoResult is the body of POST /api/projects/{id}/add-video.
type AddVideoResult struct {
	Message   string    `json:"message"`
	ProjectID int       `json:"project_id"`
	VideoFile VideoFile `json:"video_file"`
}

// UploadResult is the body of POST /api/upload/video.
type UploadResult struct {
	Filename string `json:"filename"`
	FileSize int64  `json:"file_size"`
	Message  string `json:"message"`
	FilePath string `json:"file_path"`
}

// VideoInfo is the media summary returned by GET /api/video/info.
type VideoInfo struct {
	Filename string      `json:"filename"`
	Format   string      `json:"format"`
	Duration float64     `json:"duration"`
	Size     int64       `json:"size"`
	BitRate  int64       `json:"bit_rate"`
	Video    *VideoTrack `json:"video"`
	Audio    *AudioTrack `json:"audio"`
}

// VideoTrack describes the first video stream of a file.
type VideoTrack struct {
	Codec  string  `json:"codec"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	FPS    float64 `json:"fps"`
}

// AudioTrack describes the first audio stream of a file.
type AudioTrack struct {
	Codec    string `json:"codec"`
	Channels int    `json:"channels"`
}

// ProcessResult is the body returned by the /api/video/* processing endpoints.
//
// Each endpoint names its output differently, so the body is kept as a map.
type ProcessResult map[string]any

// outputKeys lists the keys processing endpoints use for the produced file, in lookup order.
var outputKeys = []string{
	"output_file", "clipped_file", "converted_file", "filtered_file", "watermarked_file",
	"subtitled_file", "audio_file", "thumbnail_file",
}

// OutputFile returns the filename produced by the operation, if the body names one.
func (p ProcessResult) OutputFile() string {
	for _, k := range outputKeys {
		if v, ok := p[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// Message returns the backend's human-readable message.
func (p ProcessResult) Message() string {
	msg, _ := p["message"].(string)
	return msg
}

// SystemStatus is the body of GET /api/system/status.
type SystemStatus struct {
	System            string        `json:"system"`
	Status            string        `json:"status"`
	UsersCount        int           `json:"users_count"`
	ProjectsCount     int           `json:"projects_count"`
	VideosCount       int           `json:"videos_count"`
	Storage           StorageStatus `json:"storage"`
	FeaturesAvailable []string      `json:"features_available"`
}

// StorageStatus is the upload directory summary inside [SystemStatus].
type StorageStatus struct {
	TotalFiles     int     `json:"total_files"`
	VideoFiles     int     `json:"video_files"`
	ProcessedFiles int     `json:"processed_files"`
	TotalSizeMB    float64 `json:"total_size_mb"`
	DatabaseSizeMB float64 `json:"database_size_mb"`
}

// Health is the body of GET /api/health.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
