package theme

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/jmylchreest/lockind/internal/config"
)

// importRegex matches @import "file.css"; or @import 'file.css'; or @import url("file.css");
var importRegex = regexp.MustCompile(`@import\s+(?:url\s*\(\s*)?["']([^"']+)["']\s*\)?;?`)

// Theme represents a CSS theme with metadata.
type Theme struct {
	Name      string    // Theme name (without .css extension)
	Path      string    // Full path to the CSS file (empty when bundled)
	CSS       string    // The CSS content with imports inlined
	ModTime   time.Time // Last modification time
	IsDefault bool      // True if this is the embedded default theme
}

// ThemesDir returns the path to the user's themes directory.
func ThemesDir() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "themes"), nil
}

// NewTheme creates a new Theme by loading a CSS file.
// CSS @import statements are resolved and inlined.
func NewTheme(name, path string) (*Theme, error) {
	css, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	return &Theme{
		Name:    name,
		Path:    path,
		CSS:     ProcessImports(string(css), filepath.Dir(path), nil),
		ModTime: info.ModTime(),
	}, nil
}

// NewBundledTheme creates a theme from an embedded stylesheet.
func NewBundledTheme(name string) (*Theme, bool) {
	css, found := bundledTheme(name)
	if !found {
		return nil, false
	}
	return &Theme{
		Name:      name,
		CSS:       ProcessImports(css, "", nil),
		IsDefault: name == DefaultThemeName,
	}, true
}

// ProcessImports resolves and inlines @import statements in CSS.
// Imports are resolved relative to baseDir, then against bundled partials
// and themes. The seen map prevents circular imports.
func ProcessImports(css string, baseDir string, seen map[string]bool) string {
	if seen == nil {
		seen = make(map[string]bool)
	}

	return importRegex.ReplaceAllStringFunc(css, func(match string) string {
		submatch := importRegex.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}

		importPath := submatch[1]

		var fullPath string
		if filepath.IsAbs(importPath) {
			fullPath = importPath
		} else {
			fullPath = filepath.Join(baseDir, importPath)
		}

		if seen[fullPath] {
			return "/* circular import prevented: " + importPath + " */"
		}
		seen[fullPath] = true

		importedCSS, err := readImport(fullPath, baseDir)
		if err != nil {
			baseName := filepath.Base(importPath)
			if strings.HasPrefix(baseName, "_") {
				if embeddedCSS, found := bundledPartial(baseName); found {
					return "/* imported (embedded): " + importPath + " */\n" + embeddedCSS
				}
			}
			themeName := strings.TrimSuffix(baseName, ".css")
			if embeddedCSS, found := bundledTheme(themeName); found {
				return "/* imported (embedded): " + importPath + " */\n" + ProcessImports(embeddedCSS, "", seen)
			}
			return "/* import failed: " + importPath + " - " + err.Error() + " */"
		}

		processedImport := ProcessImports(string(importedCSS), filepath.Dir(fullPath), seen)
		return "/* imported: " + importPath + " */\n" + processedImport
	})
}

// readImport reads an imported file. Bundled CSS has no base directory and
// only resolves against embedded files.
func readImport(fullPath, baseDir string) ([]byte, error) {
	if baseDir == "" && !filepath.IsAbs(fullPath) {
		return nil, os.ErrNotExist
	}
	return os.ReadFile(fullPath)
}

// Reload re-reads the theme and its imports from disk.
// Returns true if the resulting CSS changed.
func (t *Theme) Reload() (bool, error) {
	if t.Path == "" {
		return false, nil
	}

	info, err := os.Stat(t.Path)
	if err != nil {
		return false, err
	}

	css, err := os.ReadFile(t.Path)
	if err != nil {
		return false, err
	}

	// Imported partials can change without touching the theme file, so compare content.
	processedCSS := ProcessImports(string(css), filepath.Dir(t.Path), nil)

	oldCSS := t.CSS
	t.CSS = processedCSS
	t.ModTime = info.ModTime()

	return oldCSS != t.CSS, nil
}

// ThemeInfo provides basic theme information for listing.
type ThemeInfo struct {
	Name      string
	Path      string
	IsDefault bool
	IsBundled bool // True if a bundled theme of the same name exists
	Overrides bool // True if a user theme shadows the bundled one
}

// ListAvailableThemes lists all available themes (bundled + user).
func ListAvailableThemes() ([]ThemeInfo, error) {
	themesDir, err := ThemesDir()
	if err != nil {
		return listThemes("")
	}
	return listThemes(themesDir)
}

// listThemes lists bundled themes and the user themes found in dir.
// A user theme with a bundled name is reported once, as an override.
func listThemes(dir string) ([]ThemeInfo, error) {
	themes := bundledThemes()
	index := make(map[string]int, len(themes))
	for i, info := range themes {
		index[info.Name] = i
	}

	if dir == "" {
		return themes, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return themes, nil
		}
		return themes, err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if filepath.Ext(name) != ".css" || strings.HasPrefix(name, "_") {
			continue
		}

		themeName := strings.TrimSuffix(name, ".css")
		path := filepath.Join(dir, name)
		if i, ok := index[themeName]; ok {
			themes[i].Path = path
			themes[i].Overrides = true
			continue
		}
		index[themeName] = len(themes)
		themes = append(themes, ThemeInfo{Name: themeName, Path: path})
	}

	return themes, nil
}

// CreateThemesDir creates the themes directory if it doesn't exist.
func CreateThemesDir() error {
	themesDir, err := ThemesDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(themesDir, 0755)
}
