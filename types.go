package yadisk

import (
	"encoding/json"
	"time"
)

// Disk describes the user's disk: quota, user info, system folders.
type Disk struct {
	TotalSpace                 int64             `json:"total_space"`
	UsedSpace                  int64             `json:"used_space"`
	TrashSize                  int64             `json:"trash_size"`
	MaxFileSize                int64             `json:"max_file_size"`
	PaidMaxFileSize            int64             `json:"paid_max_file_size"`
	IsPaid                     bool              `json:"is_paid"`
	UnlimitedAutouploadEnabled bool              `json:"unlimited_autoupload_enabled"`
	Revision                   int64             `json:"revision"`
	RegTime                    *time.Time        `json:"reg_time,omitempty"`
	User                       *User             `json:"user,omitempty"`
	SystemFolders              map[string]string `json:"system_folders,omitempty"`
}

// User identifies the disk owner.
type User struct {
	UID         string `json:"uid"`
	Login       string `json:"login"`
	Country     string `json:"country,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// Resource types as reported by the API.
const (
	TypeFile = "file"
	TypeDir  = "dir"
)

// Resource is a file or directory on the disk. Directory listings carry the
// children in Embedded.
type Resource struct {
	Name      string     `json:"name"`
	Path      string     `json:"path"`
	Type      string     `json:"type"`
	Created   *time.Time `json:"created,omitempty"`
	Modified  *time.Time `json:"modified,omitempty"`
	Size      int64      `json:"size,omitempty"`
	MimeType  string     `json:"mime_type,omitempty"`
	MediaType string     `json:"media_type,omitempty"`
	MD5       string     `json:"md5,omitempty"`
	SHA256    string     `json:"sha256,omitempty"`
	Revision  int64      `json:"revision,omitempty"`

	ResourceID string `json:"resource_id,omitempty"`
	PublicKey  string `json:"public_key,omitempty"`
	PublicURL  string `json:"public_url,omitempty"`
	OriginPath string `json:"origin_path,omitempty"`
	Preview    string `json:"preview,omitempty"`
	File       string `json:"file,omitempty"`

	// AntivirusStatus may be a string or an object depending on the
	// resource; kept raw.
	AntivirusStatus  json.RawMessage   `json:"antivirus_status,omitempty"`
	Exif             *Exif             `json:"exif,omitempty"`
	Share            *ShareInfo        `json:"share,omitempty"`
	CommentIDs       *CommentIDs       `json:"comment_ids,omitempty"`
	CustomProperties map[string]any    `json:"custom_properties,omitempty"`
	Sizes            []PreviewSize     `json:"sizes,omitempty"`
	PhotosliceTime   *time.Time        `json:"photoslice_time,omitempty"`
	Embedded         *ResourceList     `json:"_embedded,omitempty"`
}

// IsDir reports whether the resource is a directory.
func (r *Resource) IsDir() bool {
	return r.Type == TypeDir
}

// ResourceList is one page of a directory listing.
type ResourceList struct {
	Sort   string     `json:"sort,omitempty"`
	Path   string     `json:"path,omitempty"`
	Items  []Resource `json:"items"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
	Total  int        `json:"total"`
}

// Exif holds image metadata.
type Exif struct {
	DateTime     *time.Time `json:"date_time,omitempty"`
	GPSLongitude any        `json:"gps_longitude,omitempty"`
	GPSLatitude  any        `json:"gps_latitude,omitempty"`
}

// ShareInfo describes a shared directory.
type ShareInfo struct {
	IsRoot  bool   `json:"is_root,omitempty"`
	IsOwned bool   `json:"is_owned,omitempty"`
	Rights  string `json:"rights,omitempty"`
}

// CommentIDs carries the comment thread identifiers of a resource.
type CommentIDs struct {
	PrivateResource string `json:"private_resource,omitempty"`
	PublicResource  string `json:"public_resource,omitempty"`
}

// PreviewSize is one preview variant of an image resource.
type PreviewSize struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// Link is the API's generic link object: either a plain resource link or a
// short-lived transfer link, or (on 202 responses) an operation status link.
type Link struct {
	Href      string `json:"href"`
	Method    string `json:"method,omitempty"`
	Templated bool   `json:"templated,omitempty"`

	// OperationID is set by the client when the link points at an
	// asynchronous operation (202 responses). Not part of the wire format.
	OperationID string `json:"-"`
}

// OperationStatus is the server-reported state of an asynchronous operation.
type OperationStatus string

// Operation states. InProgress causes another poll cycle; the other two are
// terminal.
const (
	OperationInProgress OperationStatus = "in-progress"
	OperationSuccess    OperationStatus = "success"
	OperationFailed     OperationStatus = "failed"
)

// operationStatusBody is the wire shape of the operation status endpoint,
// restricted to the fields the client requests.
type operationStatusBody struct {
	Status OperationStatus `json:"status"`
}
