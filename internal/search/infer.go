package search

import (
	"burrow/internal/index"
	"burrow/internal/score"
)

// tokenTypes maps natural-language query tokens to the file category they
// imply. Implied categories are unioned with explicitly requested types
// before the name pass runs.
var tokenTypes = map[string]index.FileType{
	"pdf":         index.TypeDocument,
	"document":    index.TypeDocument,
	"documents":   index.TypeDocument,
	"doc":         index.TypeDocument,
	"image":       index.TypeImage,
	"images":      index.TypeImage,
	"photo":       index.TypeImage,
	"photos":      index.TypeImage,
	"picture":     index.TypeImage,
	"pictures":    index.TypeImage,
	"screenshot":  index.TypeImage,
	"screenshots": index.TypeImage,
	"video":       index.TypeVideo,
	"videos":      index.TypeVideo,
	"movie":       index.TypeVideo,
	"movies":      index.TypeVideo,
	"audio":       index.TypeAudio,
	"podcast":     index.TypeAudio,
	"podcasts":    index.TypeAudio,
	"music":       index.TypeAudio,
	"song":        index.TypeAudio,
	"songs":       index.TypeAudio,
	"spreadsheet": index.TypeSpreadsheet,
	"csv":         index.TypeSpreadsheet,
	"note":        index.TypeText,
	"notes":       index.TypeText,
	"text":        index.TypeText,
	"json":        index.TypeData,
	"data":        index.TypeData,
}

// InferTypes returns the categories implied by the query's tokens.
func InferTypes(query string) map[index.FileType]bool {
	implied := make(map[index.FileType]bool)
	for _, tok := range score.Keywords(query) {
		if t, ok := tokenTypes[tok]; ok {
			implied[t] = true
		}
	}
	return implied
}

// textLike reports whether a category can carry searchable text content.
func textLike(t index.FileType) bool {
	switch t {
	case index.TypeText, index.TypeData, index.TypeSpreadsheet:
		return true
	default:
		return false
	}
}
