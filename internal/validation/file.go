package validation

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/formforge/formforge/pkg/schema"
)

// FileInfo describes one uploaded file as reported by the host.
type FileInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	MIME string `json:"mime,omitempty"`
}

// ValidateFiles checks an upload set against a file field: required count,
// per-file size against the field's human-readable budget, and per-file
// type against its accept list.
func (v *Validator) ValidateFiles(files []FileInfo, field *schema.Field) Result {
	if field == nil {
		return pass
	}

	rules := field.Validation
	if rules == nil {
		rules = &schema.Validation{}
	}

	if field.Required && len(files) == 0 {
		return fail(requiredMessage(field, rules))
	}

	var maxSize int64
	if field.MaxSize != "" {
		n, err := ParseSize(field.MaxSize)
		if err != nil {
			// A broken budget never blocks the user.
			v.logger.Warn("unparseable file size budget, limit skipped",
				slog.String("field_id", field.ID),
				slog.String("max_size", field.MaxSize),
				slog.String("error", err.Error()))
		} else {
			maxSize = n
		}
	}

	for _, f := range files {
		if maxSize > 0 && f.Size > maxSize {
			return fail(fmt.Sprintf("File %q exceeds the %s limit", f.Name, field.MaxSize))
		}
		if !acceptsFile(field.Accept, f) {
			return fail(fmt.Sprintf("File type of %q is not allowed", f.Name))
		}
	}

	return pass
}

// ParseSize parses a human-readable size like "10MB", "512 kb", or "2048"
// into bytes. Supported suffixes: B, KB, MB, GB (case-insensitive);
// a bare number is bytes.
func ParseSize(s string) (int64, error) {
	trimmed := strings.TrimSpace(strings.ToUpper(s))
	if trimmed == "" {
		return 0, fmt.Errorf("empty size")
	}

	multiplier := int64(1)
	switch {
	case strings.HasSuffix(trimmed, "GB"):
		multiplier = 1 << 30
		trimmed = strings.TrimSuffix(trimmed, "GB")
	case strings.HasSuffix(trimmed, "MB"):
		multiplier = 1 << 20
		trimmed = strings.TrimSuffix(trimmed, "MB")
	case strings.HasSuffix(trimmed, "KB"):
		multiplier = 1 << 10
		trimmed = strings.TrimSuffix(trimmed, "KB")
	case strings.HasSuffix(trimmed, "B"):
		trimmed = strings.TrimSuffix(trimmed, "B")
	}

	n, err := strconv.ParseFloat(strings.TrimSpace(trimmed), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative size %q", s)
	}

	return int64(n * float64(multiplier)), nil
}

// acceptsFile reports whether a file passes an accept list. Entries may be
// extensions (".pdf"), wildcards ("image/*"), or exact MIME types; an
// empty list or "*/*" accepts everything. Extension entries match by file
// name regardless of MIME, and MIME entries match regardless of extension.
func acceptsFile(accept string, f FileInfo) bool {
	accept = strings.TrimSpace(accept)
	if accept == "" || accept == "*/*" {
		return true
	}

	ext := strings.ToLower(filepath.Ext(f.Name))
	mime := strings.ToLower(strings.TrimSpace(f.MIME))

	for _, entry := range strings.Split(accept, ",") {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		switch {
		case entry == "*/*":
			return true
		case strings.HasPrefix(entry, "."):
			if ext == entry {
				return true
			}
		case strings.HasSuffix(entry, "/*"):
			if mime != "" && strings.HasPrefix(mime, strings.TrimSuffix(entry, "*")) {
				return true
			}
		default:
			if mime == entry {
				return true
			}
		}
	}
	return false
}
