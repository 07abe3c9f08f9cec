package index

import (
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

// FileType is the coarse category a file falls into, derived from its
// extension.
type FileType int

const (
	TypeOther FileType = iota
	TypeDocument
	TypeText
	TypeImage
	TypeAudio
	TypeVideo
	TypeData
	TypeSpreadsheet
)

func (t FileType) String() string {
	switch t {
	case TypeDocument:
		return "document"
	case TypeText:
		return "text"
	case TypeImage:
		return "image"
	case TypeAudio:
		return "audio"
	case TypeVideo:
		return "video"
	case TypeData:
		return "data"
	case TypeSpreadsheet:
		return "spreadsheet"
	default:
		return "other"
	}
}

// ParseFileType maps a category name back to its FileType. Unknown names
// come back as TypeOther.
func ParseFileType(s string) FileType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "document":
		return TypeDocument
	case "text":
		return TypeText
	case "image":
		return TypeImage
	case "audio":
		return TypeAudio
	case "video":
		return TypeVideo
	case "data":
		return TypeData
	case "spreadsheet":
		return TypeSpreadsheet
	default:
		return TypeOther
	}
}

// FileMetadata is one indexed entry. Path is relative to the sandbox root
// and serves as the unique index key. Content and Summary are populated only
// for extensions on the text whitelist; Embedding is always present once the
// entry has been indexed.
type FileMetadata struct {
	Path      string
	Name      string
	Size      int64
	ModTime   time.Time
	Type      FileType
	Content   string
	Summary   string
	Embedding []float64
}

// maxContentSample bounds how much of a text file is kept in memory.
// Indexing never reads past this prefix regardless of file size.
const maxContentSample = 5 * 1024

// maxSummaryLen bounds the derived summary.
const maxSummaryLen = 200

var extTypes = map[string]FileType{
	".pdf":   TypeDocument,
	".doc":   TypeDocument,
	".docx":  TypeDocument,
	".rtf":   TypeDocument,
	".odt":   TypeDocument,
	".pages": TypeDocument,

	".txt":      TypeText,
	".md":       TypeText,
	".markdown": TypeText,
	".rst":      TypeText,
	".log":      TypeText,
	".tex":      TypeText,

	".jpg":  TypeImage,
	".jpeg": TypeImage,
	".png":  TypeImage,
	".gif":  TypeImage,
	".bmp":  TypeImage,
	".heic": TypeImage,
	".webp": TypeImage,
	".svg":  TypeImage,
	".tiff": TypeImage,

	".mp3":  TypeAudio,
	".wav":  TypeAudio,
	".m4a":  TypeAudio,
	".flac": TypeAudio,
	".aac":  TypeAudio,
	".ogg":  TypeAudio,

	".mp4":  TypeVideo,
	".mov":  TypeVideo,
	".avi":  TypeVideo,
	".mkv":  TypeVideo,
	".webm": TypeVideo,
	".m4v":  TypeVideo,

	".json": TypeData,
	".xml":  TypeData,
	".yaml": TypeData,
	".yml":  TypeData,
	".toml": TypeData,

	".csv":     TypeSpreadsheet,
	".xls":     TypeSpreadsheet,
	".xlsx":    TypeSpreadsheet,
	".numbers": TypeSpreadsheet,
	".ods":     TypeSpreadsheet,
}

// textSampleExts is the whitelist of extensions whose content is sampled.
// Anything not listed here never has file content loaded into memory.
var textSampleExts = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".rst":      true,
	".log":      true,
	".tex":      true,
	".json":     true,
	".xml":      true,
	".yaml":     true,
	".yml":      true,
	".toml":     true,
	".csv":      true,
}

// ClassifyExt returns the category for a filename's extension.
func ClassifyExt(name string) FileType {
	if t, ok := extTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return t
	}
	return TypeOther
}

// HasTextSample reports whether content sampling applies to name.
func HasTextSample(name string) bool {
	return textSampleExts[strings.ToLower(filepath.Ext(name))]
}

// Summarize derives the stored summary from a content sample: the first
// three non-blank lines joined with a space, truncated to maxSummaryLen.
func Summarize(content string) string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == 3 {
			break
		}
	}
	s := strings.Join(lines, " ")
	if len(s) > maxSummaryLen {
		// Cut on a rune boundary so a multi-byte character is never split.
		cut := maxSummaryLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}
