package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"alibi/internal/model"
)

// Store provides read access to a story dataset
type Store interface {
	// Get loads one story by id
	Get(storyID string) (model.Story, error)

	// IDs lists every story id in the dataset, sorted
	IDs() ([]string, error)
}

// DirStore reads stories from a flat directory. Each story is a pair
// of files named <id>.narrative.<ext> and <id>.backstory.<ext>, where
// ext is txt or html. HTML files are reduced to their visible text
// with paragraph structure preserved, so chunking behaves the same
// for both formats.
type DirStore struct {
	dir string
}

// NewDirStore creates a store over the given directory
func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

var storyExtensions = []string{".txt", ".html"}

// Get loads the narrative and backstory for one story id. Both parts
// must exist; a missing file is an error, not an empty story.
func (s *DirStore) Get(storyID string) (model.Story, error) {
	narrative, err := s.readPart(storyID, "narrative")
	if err != nil {
		return model.Story{}, err
	}

	backstory, err := s.readPart(storyID, "backstory")
	if err != nil {
		return model.Story{}, err
	}

	return model.Story{
		ID:        storyID,
		Narrative: narrative,
		Backstory: backstory,
	}, nil
}

// IDs scans the directory for narrative files and returns their story
// ids, sorted for deterministic batch order
func (s *DirStore) IDs() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading dataset directory %s: %w", s.dir, err)
	}

	seen := make(map[string]bool)
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		for _, ext := range storyExtensions {
			suffix := ".narrative" + ext
			if strings.HasSuffix(name, suffix) {
				id := strings.TrimSuffix(name, suffix)
				if id != "" && !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
		}
	}

	sort.Strings(ids)
	return ids, nil
}

// readPart finds and reads <id>.<part>.<ext>, trying txt then html
func (s *DirStore) readPart(storyID, part string) (string, error) {
	for _, ext := range storyExtensions {
		path := filepath.Join(s.dir, storyID+"."+part+ext)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		if ext == ".html" {
			return VisibleText(string(data))
		}
		return string(data), nil
	}
	return "", fmt.Errorf("story %s: no %s file found in %s", storyID, part, s.dir)
}

// VisibleText reduces an HTML document to its visible text. Block
// elements become paragraph breaks so downstream chunking still sees
// paragraph boundaries; script, style, noscript, and iframe subtrees
// are dropped entirely.
func VisibleText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("parsing html: %w", err)
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			case "p", "div", "br", "h1", "h2", "h3", "h4", "h5", "h6", "li", "blockquote":
				buf.WriteString("\n\n")
			}
		}

		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return tidyParagraphs(buf.String()), nil
}

// tidyParagraphs trims per-line whitespace and collapses blank-line
// runs to a single paragraph separator
func tidyParagraphs(s string) string {
	var paragraphs []string
	for _, p := range strings.Split(s, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return strings.Join(paragraphs, "\n\n")
}
