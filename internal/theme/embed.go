package theme

import (
	"embed"
	"io/fs"
	"path"
	"strings"
)

//go:embed themes/*.css
var bundled embed.FS

// DefaultThemeName is the name of the built-in default theme.
const DefaultThemeName = "default"

// bundledFile returns a stylesheet from the themes directory of the binary.
func bundledFile(file string) (string, bool) {
	data, err := bundled.ReadFile(path.Join("themes", file))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// bundledTheme returns the raw CSS of a bundled theme. Partials are not
// themes, so names starting with _ never match.
func bundledTheme(name string) (string, bool) {
	if name == "" || strings.HasPrefix(name, "_") {
		return "", false
	}
	return bundledFile(name + ".css")
}

// bundledPartial returns an importable partial such as _base.css.
// The leading underscore and extension are optional.
func bundledPartial(name string) (string, bool) {
	name = "_" + strings.TrimPrefix(strings.TrimSuffix(name, ".css"), "_")
	return bundledFile(name + ".css")
}

// bundledThemes lists the bundled themes in directory order.
func bundledThemes() []ThemeInfo {
	entries, err := fs.ReadDir(bundled, "themes")
	if err != nil {
		return nil
	}

	var themes []ThemeInfo
	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), ".css")
		if entry.IsDir() || !ok || strings.HasPrefix(name, "_") {
			continue
		}
		themes = append(themes, ThemeInfo{
			Name:      name,
			IsDefault: name == DefaultThemeName,
			IsBundled: true,
		})
	}
	return themes
}
