package vfs

import (
	"encoding/base64"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

// TransferFormat selects the shape of [Engine.ExportFile] output.
type TransferFormat string

const (
	FormatBase64  TransferFormat = "base64"
	FormatDataURL TransferFormat = "dataurl"
)

// DefaultMIME is used for extensions missing from the table.
const DefaultMIME = "application/octet-stream"

var mimeByExt = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "text/javascript",
	".json": "application/json",
	".xml":  "application/xml",
	".pdf":  "application/pdf",
	".zip":  "application/zip",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".ttf":  "font/ttf",
	".woff": "font/woff",
}

// MIMEType infers a MIME type from the extension of p.
func MIMEType(p string) string {
	if m, ok := mimeByExt[strings.ToLower(path.Ext(Base(p)))]; ok {
		return m
	}
	return DefaultMIME
}

// EncodeBase64 encodes the UTF-8 bytes of text.
func EncodeBase64(text string) string {
	return base64.StdEncoding.EncodeToString([]byte(text))
}

// decodeBase64Bytes accepts padded or unpadded input and ignores whitespace.
func decodeBase64Bytes(data string) ([]byte, error) {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, data)
	raw, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(clean, "="))
	}
	return raw, err
}

// DecodeBase64 decodes data as UTF-8 text. Bytes that are not valid UTF-8
// are mapped one to one onto Latin-1 characters instead.
func DecodeBase64(data string) (string, error) {
	raw, err := decodeBase64Bytes(data)
	if err != nil {
		return "", err
	}
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	runes := make([]rune, len(raw))
	for i, b := range raw {
		runes[i] = rune(b)
	}
	return string(runes), nil
}

// Encode is [EncodeBase64]; it never fails.
func (e *Engine) Encode(text string) string {
	_ = e.record(OpEncode, nil)
	return EncodeBase64(text)
}

// Decode is [DecodeBase64] with failures recorded as EncodingError.
func (e *Engine) Decode(data string) (string, error) {
	text, err := DecodeBase64(data)
	if err != nil {
		return "", e.record(OpDecode, wrapError(OpDecode, "", KindEncodingError, err))
	}
	return text, e.record(OpDecode, nil)
}

// ExportFile returns a readable file's content as base64, or as a data URL
// carrying a MIME type inferred from the file extension.
func (e *Engine) ExportFile(path string, format TransferFormat) (string, error) {
	out, err := e.exportFile(path, format)
	return out, e.record(OpExportFile, err)
}

func (e *Engine) exportFile(path string, format TransferFormat) (string, error) {
	p, err := e.canon(OpExportFile, path)
	if err != nil {
		return "", err
	}
	p = e.resolveForm(p)
	n, err := e.lookup(OpExportFile, p)
	if err != nil {
		return "", err
	}
	if n.IsDir() {
		return "", newError(OpExportFile, p, KindIsDirectory, "")
	}
	if !n.Perms.Read {
		return "", newError(OpExportFile, p, KindPermissionDenied, "read")
	}

	encoded := EncodeBase64(n.Content)
	switch format {
	case FormatBase64, "":
		return encoded, nil
	case FormatDataURL:
		return "data:" + MIMEType(p) + ";base64," + encoded, nil
	}
	return "", newError(OpExportFile, p, KindInvalidArgument, "unknown format "+string(format))
}

// ImportFile decodes base64 or a base64 data URL the way [DecodeBase64] does
// and writes the text to dest. Payloads that are not valid UTF-8 are stored
// as Latin-1 text so they survive snapshots unchanged.
func (e *Engine) ImportFile(data, dest string) error {
	return e.record(OpImportFile, e.importFile(data, dest))
}

func (e *Engine) importFile(data, dest string) error {
	p, err := e.canon(OpImportFile, dest)
	if err != nil {
		return err
	}
	payload := strings.TrimSpace(data)
	if strings.HasPrefix(strings.ToLower(payload), "data:") {
		idx := strings.IndexByte(payload, ',')
		if idx < 0 {
			return newError(OpImportFile, p, KindEncodingError, "data URL without payload")
		}
		payload = payload[idx+1:]
	}
	text, err := DecodeBase64(payload)
	if err != nil {
		return wrapError(OpImportFile, p, KindEncodingError, err)
	}
	return e.write(p, text)
}

// DetectMIME sniffs the content of a readable file.
func (e *Engine) DetectMIME(path string) (string, error) {
	p, err := e.canon(OpStat, path)
	if err != nil {
		return "", e.record(OpStat, err)
	}
	p = e.resolveForm(p)
	n, err := e.lookup(OpStat, p)
	if err != nil {
		return "", e.record(OpStat, err)
	}
	if n.IsDir() {
		return "", e.record(OpStat, newError(OpStat, p, KindIsDirectory, ""))
	}
	if !n.Perms.Read {
		return "", e.record(OpStat, newError(OpStat, p, KindPermissionDenied, "read"))
	}
	return mimetype.Detect([]byte(n.Content)).String(), nil
}
