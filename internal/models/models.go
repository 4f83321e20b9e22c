package models

import "time"

// FileMetadata holds what a directory listing reports about one entry.
type FileMetadata struct {
	Name         string
	RelativePath string
	Size         int64
	ModTime      time.Time
	IsDir        bool
	IsRegular    bool
}

// MediaKind classifies a media file by extension.
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
)

// Category is a named subdirectory of the categories folder.
type Category struct {
	Name      string `json:"name"`
	FileCount int    `json:"fileCount"`
	Path      string `json:"path"`
}

// MediaFile is an image or video in downloads or a category.
type MediaFile struct {
	Name     string    `json:"name"`
	Type     MediaKind `json:"type"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	Path     string    `json:"path"`
}

// FolderStatus reports which parts of the media tree exist.
type FolderStatus struct {
	BaseFolder       bool     `json:"baseFolder"`
	DownloadFolder   bool     `json:"downloadFolder"`
	CategoriesFolder bool     `json:"categoriesFolder"`
	Categories       []string `json:"categories"`
}

// Event names pushed over the real-time channel.
const (
	EventNewFileDetected         = "newFileDetected"
	EventFileMoved               = "fileMoved"
	EventDownloadFolderRecreated = "downloadFolderRecreated"
	EventDownloadFolderCreated   = "downloadFolderCreated"
)

// Event is a broadcast notification.
type Event struct {
	Name      string    `json:"event"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// NewFileData accompanies EventNewFileDetected.
type NewFileData struct {
	FileName string `json:"fileName"`
	FilePath string `json:"filePath"`
}

// FileMovedData accompanies EventFileMoved.
type FileMovedData struct {
	FileName string `json:"fileName"`
	Category string `json:"category"`
}

// FolderData accompanies the downloads folder events.
type FolderData struct {
	Message string `json:"message"`
	Path    string `json:"path"`
}
