package markdown

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const separator = "---\n"

// SplitFrontmatter decodes the leading YAML block into meta and returns the remaining body.
// Content without a frontmatter block leaves meta untouched.
func SplitFrontmatter(content string, meta any) (string, error) {
	if !strings.HasPrefix(content, separator) {
		return content, nil
	}
	rest := strings.TrimPrefix(content, separator)
	idx := strings.Index(rest, "\n"+separator)
	if idx < 0 {
		return "", fmt.Errorf("invalid frontmatter: missing closing separator")
	}
	if err := yaml.Unmarshal([]byte(rest[:idx]), meta); err != nil {
		return "", fmt.Errorf("unmarshal frontmatter: %w", err)
	}
	return rest[idx+len("\n"+separator):], nil
}

// ReadFrontmatter decodes only the metadata of the note at path.
func ReadFrontmatter(path string, meta any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = SplitFrontmatter(string(raw), meta)
	return err
}

// Section is a level-two heading followed by "- key: value" bullets.
type Section struct {
	Heading string
	Items   [][2]string
}

// Note is the body of a journal page.
type Note struct {
	Title    string
	Summary  [][2]string
	Sections []Section
}

// Render writes meta as YAML frontmatter followed by the note body. Sections
// without items are omitted. Struct field order in meta is preserved.
func Render(meta any, note Note) (string, error) {
	raw, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}
	buf := bytes.Buffer{}
	buf.WriteString(separator)
	buf.Write(raw)
	buf.WriteString(separator)
	buf.WriteString("\n# " + note.Title + "\n\n")
	writeBullets(&buf, note.Summary)
	for _, s := range note.Sections {
		if len(s.Items) == 0 {
			continue
		}
		buf.WriteString("\n## " + s.Heading + "\n\n")
		writeBullets(&buf, s.Items)
	}
	return buf.String(), nil
}

func writeBullets(buf *bytes.Buffer, pairs [][2]string) {
	for _, pair := range pairs {
		fmt.Fprintf(buf, "- %s: %s\n", pair[0], pair[1])
	}
}
