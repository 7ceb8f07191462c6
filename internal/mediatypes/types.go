package mediatypes

// FileType is the store-level kind assigned to a file at index time.
type FileType string

// Store-level kinds.
const (
	FileTypeImage FileType = "image"
	FileTypeVideo FileType = "video"
	FileTypeAudio FileType = "audio"
	FileTypeOther FileType = "other"
)

type storeType struct {
	kind FileType
	mime string
}

// storeTypes lists the extensions the indexer records. It is wider than the
// classification table: the library may hold files callers cannot receive.
var storeTypes = map[string]storeType{
	".jpg":  {FileTypeImage, "image/jpeg"},
	".jpeg": {FileTypeImage, "image/jpeg"},
	".png":  {FileTypeImage, "image/png"},
	".gif":  {FileTypeImage, "image/gif"},
	".bmp":  {FileTypeImage, "image/bmp"},
	".webp": {FileTypeImage, "image/webp"},
	".tif":  {FileTypeImage, "image/tiff"},
	".tiff": {FileTypeImage, "image/tiff"},
	".heic": {FileTypeImage, "image/heic"},
	".heif": {FileTypeImage, "image/heif"},

	".mp4":  {FileTypeVideo, "video/mp4"},
	".m4v":  {FileTypeVideo, "video/x-m4v"},
	".mov":  {FileTypeVideo, "video/quicktime"},
	".mkv":  {FileTypeVideo, "video/x-matroska"},
	".webm": {FileTypeVideo, "video/webm"},
	".avi":  {FileTypeVideo, "video/x-msvideo"},
	".wmv":  {FileTypeVideo, "video/x-ms-wmv"},
	".mpg":  {FileTypeVideo, "video/mpeg"},
	".mpeg": {FileTypeVideo, "video/mpeg"},
	".3gp":  {FileTypeVideo, "video/3gpp"},

	".m4a":  {FileTypeAudio, "audio/mp4"},
	".aac":  {FileTypeAudio, "audio/aac"},
	".mp3":  {FileTypeAudio, "audio/mpeg"},
	".wav":  {FileTypeAudio, "audio/wav"},
	".wma":  {FileTypeAudio, "audio/x-ms-wma"},
	".flac": {FileTypeAudio, "audio/flac"},
}

// GetFileType returns the kind for a lower case extension with its leading
// dot, or FileTypeOther.
func GetFileType(ext string) FileType {
	if t, ok := storeTypes[ext]; ok {
		return t.kind
	}
	return FileTypeOther
}

// GetMimeType returns the MIME type served for a lower case extension, or
// application/octet-stream.
func GetMimeType(ext string) string {
	if t, ok := storeTypes[ext]; ok {
		return t.mime
	}
	return "application/octet-stream"
}

// IsMediaFile reports whether the indexer records files with ext.
func IsMediaFile(ext string) bool {
	_, ok := storeTypes[ext]
	return ok
}
