// package formatter provides functions to export a to-do list to various formats (CSV, Markdown, JSON, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/desertthunder/tallyho/internal/models"
	"github.com/desertthunder/tallyho/internal/shared"
)

// Format names an export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatText     Format = "txt"
	FormatJSON     Format = "json"
)

// Formats lists every supported export format.
var Formats = []Format{FormatCSV, FormatMarkdown, FormatText, FormatJSON}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ParseFormat converts a flag value into a [Format]. "markdown" and "text" are accepted aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// ExportToCSV converts an ItemList to CSV format with columns: Position, Item
func ExportToCSV(list models.ItemList) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Position", "Item"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, item := range list.Items {
		if err := writer.Write([]string{strconv.Itoa(i + 1), item}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts an ItemList to a Markdown task list
func ExportToMarkdown(list models.ItemList) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title(list))
	fmt.Fprintf(&buf, "**Items**: %d\n\n", len(list.Items))

	buf.WriteString("## Items\n\n")
	for _, item := range list.Items {
		fmt.Fprintf(&buf, "- [ ] %s\n", item)
	}

	return buf.Bytes(), nil
}

// ExportToText converts an ItemList to plain text format
func ExportToText(list models.ItemList) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "List: %s\n", title(list))
	fmt.Fprintf(&buf, "Items: %d\n\n", len(list.Items))

	for i, item := range list.Items {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, item)
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts an ItemList to indented JSON
func ExportToJSON(list models.ItemList) ([]byte, error) {
	payload := struct {
		OwnerID string   `json:"owner_id"`
		Owner   string   `json:"owner"`
		Items   []string `json:"items"`
	}{list.OwnerID, list.Owner, list.Items}

	if payload.Items == nil {
		payload.Items = []string{}
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Export renders list in the given format.
func Export(list models.ItemList, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(list)
	case FormatMarkdown:
		return ExportToMarkdown(list)
	case FormatText:
		return ExportToText(list)
	case FormatJSON:
		return ExportToJSON(list)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// Write renders list in the given format to w.
func Write(w io.Writer, list models.ItemList, format Format) error {
	data, err := Export(list, format)
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// WriteExport writes list to path in the given format and returns the path written.
//
// Defaults to {owner}_items.{format} as the filename.
func WriteExport(list models.ItemList, format Format, path string) (string, error) {
	if path == "" {
		path = DefaultFilename(list, format)
	}

	data, err := Export(list, format)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}

	return path, nil
}

// DefaultFilename derives a filesystem safe filename from the list owner.
func DefaultFilename(list models.ItemList, format Format) string {
	base := strings.Trim(unsafeFilename.ReplaceAllString(title(list), "_"), "_")
	if base == "" {
		base = "list"
	}
	return fmt.Sprintf("%s_items.%s", base, format)
}

func title(list models.ItemList) string {
	if list.Owner != "" {
		return list.Owner
	}
	if list.OwnerID != "" {
		return list.OwnerID
	}
	return "To-Do List"
}
