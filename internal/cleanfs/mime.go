package cleanfs

import (
	"mime"
	"path"
	"strings"
)

// mimeTypes covers the extensions the UI cares about; anything else falls
// through to the platform mime database and finally octet-stream.
var mimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".txt":  "text/plain",
	".csv":  "text/csv",
	".mp3":  "audio/mpeg",
	".mp4":  "video/mp4",
	".zip":  "application/zip",
	".gz":   "application/gzip",
	".json": "application/json",
	".html": "text/html",
	".css":  "text/css",
	".js":   "text/javascript",
}

// MimeTypeByName infers a mime type from a file name's extension.
func MimeTypeByName(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if t, ok := mimeTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// compressedTypes are formats that gain nothing from recompression; uploads
// of these skip the optional gzip step.
var compressedTypes = map[string]bool{
	"image/jpeg":       true,
	"image/png":        true,
	"image/gif":        true,
	"image/webp":       true,
	"application/zip":  true,
	"application/gzip": true,
	"application/x-7z-compressed":  true,
	"application/x-rar-compressed": true,
	"video/mp4":  true,
	"video/mpeg": true,
	"video/webm": true,
	"audio/mpeg": true,
	"audio/ogg":  true,
}

// IsCompressedType reports whether the mime type is an already-compressed
// format.
func IsCompressedType(mimeType string) bool {
	return compressedTypes[mimeType]
}
