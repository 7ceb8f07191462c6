// Package mediatypes classifies media files by extension.
//
// It has two tables with different jobs.
//
// The store table decides which files the indexer records, under which
// FileType and with which MIME type they are served:
//
//	ext := strings.ToLower(filepath.Ext(filename))
//	if mediatypes.IsMediaFile(ext) {
//	    kind := mediatypes.GetFileType(ext)
//	}
//
// The bridge table behind Classify decides what a caller is told about an
// asset: base name, upper-case extension, MIME type and MediaKind. Assets
// whose filename Classify rejects are never handed to callers:
//
//	c, ok := mediatypes.Classify("IMG_0001.HEIC")
//	// c.Name == "IMG_0001", c.MimeType == "image/jpeg", c.Kind == KindImage
//
// The package has no dependencies beyond the standard library so any other
// package may import it without creating cycles.
package mediatypes
